package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store owns the ordered session collection and the active session reference.
// Every mutation is applied to a copy, persisted, then committed
type Store struct {
	backend Backend
	logger  *zap.Logger

	mu      sync.RWMutex
	state   *state
	pending map[string]struct{}
}

// Open loads the persisted collection from the backend, repairing the active reference if needed
func Open(ctx context.Context, backend Backend, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Store{
		backend: backend,
		logger:  logger,
		state:   &state{},
		pending: make(map[string]struct{}),
	}

	loaded, dirty, err := load(ctx, backend)
	if err != nil {
		return nil, err
	}

	if len(loaded.sessions) == 0 {
		fresh, err := newSession()
		if err != nil {
			return nil, err
		}
		loaded.sessions = []Session{fresh}
		loaded.activeID = fresh.ID
		dirty = true
	}

	if dirty {
		if err := persist(ctx, backend, loaded, nil); err != nil {
			return nil, fmt.Errorf("failed to persist sessions: %w", err)
		}
	}

	s.state = loaded
	logger.Info("session store opened", zap.Int("sessions", len(loaded.sessions)), zap.String("active", loaded.activeID))
	return s, nil
}

// load reads both blobs. dirty reports whether reconstruction changed anything that must be written back
func load(ctx context.Context, backend Backend) (*state, bool, error) {
	st := &state{}
	dirty := false

	chats, err := backend.Get(ctx, KeyChats)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load sessions: %w", err)
	}
	if len(chats) > 0 {
		var records []record
		if err := json.Unmarshal(chats, &records); err != nil {
			return nil, false, fmt.Errorf("failed to decode sessions: %w", err)
		}
		for _, r := range records {
			if r.ID == "" {
				dirty = true
				continue
			}
			st.sessions = append(st.sessions, r.session())
		}
	}

	active, err := backend.Get(ctx, KeyActive)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load active session: %w", err)
	}

	var snapshot record
	if len(active) > 0 {
		if err := json.Unmarshal(active, &snapshot); err != nil {
			return nil, false, fmt.Errorf("failed to decode active session: %w", err)
		}
	}

	switch {
	case snapshot.ID != "" && st.index(snapshot.ID) >= 0:
		st.activeID = snapshot.ID
	case snapshot.ID != "":
		st.sessions = append(st.sessions, snapshot.session())
		st.activeID = snapshot.ID
		dirty = true
	case len(st.sessions) > 0:
		st.activeID = st.sessions[0].ID
		dirty = true
	}

	return st, dirty, nil
}

func encodeChats(st *state) ([]byte, error) {
	records := make([]record, len(st.sessions))
	for i, s := range st.sessions {
		records[i] = s.record()
	}

	chats, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return chats, nil
}

// persist writes the collection, then the active snapshot. When the snapshot write fails and prev
// is set, the collection is rewritten from prev so disk still matches the last committed state
func persist(ctx context.Context, backend Backend, st, prev *state) error {
	chats, err := encodeChats(st)
	if err != nil {
		return err
	}
	active, err := json.Marshal(st.active().record())
	if err != nil {
		return fmt.Errorf("failed to encode active session: %w", err)
	}

	if err := backend.Put(ctx, KeyChats, chats); err != nil {
		return err
	}
	if err := backend.Put(ctx, KeyActive, active); err != nil {
		if prev == nil {
			return err
		}

		previous, encErr := encodeChats(prev)
		if encErr != nil {
			return errors.Join(err, encErr)
		}
		if rbErr := backend.Put(ctx, KeyChats, previous); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to restore sessions: %w", rbErr))
		}
		return err
	}
	return nil
}

// mutate applies fn to a copy of the state, persists it and commits it. On any error memory is left unchanged
func (s *Store) mutate(ctx context.Context, fn func(next *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := persist(ctx, s.backend, next, s.state); err != nil {
		s.logger.Error("failed to persist sessions", zap.Error(err))
		return fmt.Errorf("failed to persist sessions: %w", err)
	}

	s.state = next
	return nil
}

func newSession() (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}
	return Session{ID: id.String(), Title: DefaultTitle, Transcript: []civic.Turn{}}, nil
}

func notFound(id string) error {
	return fmt.Errorf("session %s: %w", id, civic.ErrNotFound)
}

// Create adds an empty session and makes it active
func (s *Store) Create(ctx context.Context) (Session, error) {
	var created Session
	err := s.mutate(ctx, func(next *state) error {
		fresh, err := newSession()
		if err != nil {
			return err
		}
		next.sessions = append(next.sessions, fresh)
		next.activeID = fresh.ID
		created = fresh
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return created.clone(), nil
}

// Select makes the session with the given id active
func (s *Store) Select(ctx context.Context, id string) error {
	return s.mutate(ctx, func(next *state) error {
		if next.index(id) < 0 {
			return notFound(id)
		}
		next.activeID = id
		return nil
	})
}

// Delete removes a session. If it was active, the first remaining session becomes active,
// or a fresh session is created when none remain
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(next *state) error {
		i := next.index(id)
		if i < 0 {
			return notFound(id)
		}
		next.sessions = append(next.sessions[:i], next.sessions[i+1:]...)

		if next.activeID != id {
			return nil
		}
		if len(next.sessions) > 0 {
			next.activeID = next.sessions[0].ID
			return nil
		}

		fresh, err := newSession()
		if err != nil {
			return err
		}
		next.sessions = []Session{fresh}
		next.activeID = fresh.ID
		return nil
	})
	if err != nil {
		return err
	}

	s.clearPending(id)
	return nil
}

// Rename sets the title of a session. A blank title resets it to DefaultTitle
func (s *Store) Rename(ctx context.Context, id, title string) (Session, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	var renamed Session
	err := s.mutate(ctx, func(next *state) error {
		i := next.index(id)
		if i < 0 {
			return notFound(id)
		}
		next.sessions[i].Title = title
		renamed = next.sessions[i]
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	return s.view(renamed), nil
}

// ClearAll removes every session and starts a fresh one
func (s *Store) ClearAll(ctx context.Context) (Session, error) {
	var fresh Session
	err := s.mutate(ctx, func(next *state) error {
		created, err := newSession()
		if err != nil {
			return err
		}
		next.sessions = []Session{created}
		next.activeID = created.ID
		fresh = created
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.pending = make(map[string]struct{})
	s.mu.Unlock()

	return fresh.clone(), nil
}

// AppendTurn adds a turn to the end of a session transcript
func (s *Store) AppendTurn(ctx context.Context, id string, turn civic.Turn) error {
	if !turn.Speaker.Valid() {
		return fmt.Errorf("failed to append turn: unknown speaker %q: %w", turn.Speaker, civic.ErrInvalidInput)
	}

	return s.mutate(ctx, func(next *state) error {
		i := next.index(id)
		if i < 0 {
			return notFound(id)
		}
		next.sessions[i].Transcript = append(next.sessions[i].Transcript, turn)
		return nil
	})
}

// BeginTurn records the user's message and marks the session as awaiting an answer
func (s *Store) BeginTurn(ctx context.Context, id, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("failed to begin turn: %w", civic.ErrInvalidInput)
	}

	if err := s.AppendTurn(ctx, id, civic.UserTurn(text)); err != nil {
		return err
	}

	s.mu.Lock()
	s.pending[id] = struct{}{}
	s.mu.Unlock()
	return nil
}

// ResolveTurn replaces the pending placeholder with the assistant's reply
func (s *Store) ResolveTurn(ctx context.Context, id string, reply civic.Reply) error {
	defer s.clearPending(id)
	return s.AppendTurn(ctx, id, reply.Turn())
}

// AbandonTurn drops the pending placeholder. The user's turn stays in the transcript
func (s *Store) AbandonTurn(id string) {
	s.clearPending(id)
}

func (s *Store) clearPending(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// view copies a session and marks it pending when an answer is outstanding. Callers hold no lock
func (s *Store) view(session Session) Session {
	s.mu.RLock()
	_, pending := s.pending[session.ID]
	s.mu.RUnlock()

	out := session.clone()
	out.Pending = pending
	return out
}

// Sessions returns copies of all sessions in display order
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, len(s.state.sessions))
	for i, session := range s.state.sessions {
		out[i] = session.clone()
		_, out[i].Pending = s.pending[session.ID]
	}
	return out
}

// Active returns a copy of the active session
func (s *Store) Active() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.state.active().clone()
	_, out.Pending = s.pending[out.ID]
	return out
}

// ActiveID returns the id of the active session
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.activeID
}

// Get returns a copy of one session
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.state.index(id)
	if i < 0 {
		return Session{}, notFound(id)
	}

	out := s.state.sessions[i].clone()
	_, out.Pending = s.pending[id]
	return out, nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}
