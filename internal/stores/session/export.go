package session

import (
	"fmt"

	"github.com/ethanbaker/civicchat/pkg/civic"
	"gopkg.in/yaml.v3"
)

type exportedSession struct {
	ID         string       `yaml:"id"`
	Title      string       `yaml:"title"`
	Turns      int          `yaml:"turns"`
	Transcript []civic.Turn `yaml:"transcript"`
}

// ExportYAML renders a session transcript as a YAML document
func ExportYAML(s Session) ([]byte, error) {
	transcript := s.Transcript
	if transcript == nil {
		transcript = []civic.Turn{}
	}

	out, err := yaml.Marshal(exportedSession{
		ID:         s.ID,
		Title:      s.Title,
		Turns:      len(transcript),
		Transcript: transcript,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to export session: %w", err)
	}
	return out, nil
}
