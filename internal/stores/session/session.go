package session

import (
	"github.com/ethanbaker/civicchat/pkg/civic"
)

// DefaultTitle is given to new sessions and to sessions renamed to a blank title
const DefaultTitle = "New Chat"

// Blob keys under which the collection and the active snapshot are persisted
const (
	KeyChats  = "civicchat_chats"
	KeyActive = "civicchat_active"
)

// Session is a titled conversation. Pending is set while an answer is being generated for it;
// it is a view-only flag and is never persisted
type Session struct {
	ID         string       `json:"id" yaml:"id"`
	Title      string       `json:"title" yaml:"title"`
	Transcript []civic.Turn `json:"transcript" yaml:"transcript"`
	Pending    bool         `json:"pending,omitempty" yaml:"-"`
}

// record is the persisted form of a session
type record struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Transcript []civic.Turn `json:"transcript"`
}

func (s Session) record() record {
	return record{
		ID:         s.ID,
		Title:      s.Title,
		Transcript: s.Transcript,
	}
}

func (r record) session() Session {
	title := r.Title
	if title == "" {
		title = DefaultTitle
	}
	return Session{
		ID:         r.ID,
		Title:      title,
		Transcript: r.Transcript,
	}
}

// clone returns a deep copy of the session
func (s Session) clone() Session {
	out := s
	out.Transcript = make([]civic.Turn, len(s.Transcript))
	for i, turn := range s.Transcript {
		out.Transcript[i] = turn
		out.Transcript[i].Sources = append([]civic.Source(nil), turn.Sources...)
	}
	return out
}

// state is the in-memory collection plus the active reference. Mutations are applied to a clone
type state struct {
	sessions []Session
	activeID string
}

func (st *state) clone() *state {
	out := &state{
		sessions: make([]Session, len(st.sessions)),
		activeID: st.activeID,
	}
	for i, s := range st.sessions {
		out.sessions[i] = s.clone()
	}
	return out
}

func (st *state) index(id string) int {
	for i := range st.sessions {
		if st.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

func (st *state) active() Session {
	if i := st.index(st.activeID); i >= 0 {
		return st.sessions[i]
	}
	return Session{}
}
