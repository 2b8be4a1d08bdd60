package session

import (
	"strings"

	"github.com/ethanbaker/civicchat/pkg/civic"
)

const maxMatches = 50

// Match is a transcript turn that contains a search query
type Match struct {
	SessionID string        `json:"sessionId"`
	Title     string        `json:"title"`
	Index     int           `json:"index"`
	Speaker   civic.Speaker `json:"speaker"`
	Text      string        `json:"text"`
}

// Search finds turns containing query, case-insensitively, newest session and newest turn first
func (s *Store) Search(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for i := len(s.state.sessions) - 1; i >= 0; i-- {
		session := s.state.sessions[i]
		for j := len(session.Transcript) - 1; j >= 0; j-- {
			turn := session.Transcript[j]
			if !strings.Contains(strings.ToLower(turn.Text), query) {
				continue
			}

			matches = append(matches, Match{
				SessionID: session.ID,
				Title:     session.Title,
				Index:     j,
				Speaker:   turn.Speaker,
				Text:      turn.Text,
			})
			if len(matches) == maxMatches {
				return matches
			}
		}
	}

	return matches
}
