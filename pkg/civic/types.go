package civic

import (
	"encoding/json"
	"fmt"
)

// Speaker identifies who authored a turn
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Valid reports whether the speaker is one of the known values
func (s Speaker) Valid() bool {
	return s == SpeakerUser || s == SpeakerAssistant
}

// Source is a citation attached to an assistant turn
type Source struct {
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`
}

// Turn is one message in a conversation transcript
type Turn struct {
	Speaker Speaker  `json:"speaker" yaml:"speaker"`
	Text    string   `json:"text" yaml:"text"`
	Sources []Source `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// UserTurn creates a turn spoken by the user
func UserTurn(text string) Turn {
	return Turn{Speaker: SpeakerUser, Text: text}
}

// AssistantTurn creates a turn spoken by the assistant
func AssistantTurn(text string, sources []Source) Turn {
	return Turn{Speaker: SpeakerAssistant, Text: text, Sources: sources}
}

// Link is a document source. The index stores either a bare URL string or a {title, url} object
type Link struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// UnmarshalJSON accepts both a JSON string and an object
func (l *Link) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*l = Link{URL: raw}
		return nil
	}

	type plain Link
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to decode source link: %w", err)
	}
	*l = Link(obj)
	return nil
}

// String renders the link for a context block
func (l Link) String() string {
	switch {
	case l.URL == "":
		return l.Title
	case l.Title == "" || l.Title == l.URL:
		return l.URL
	default:
		return fmt.Sprintf("%s (%s)", l.Title, l.URL)
	}
}

// Tags are a document's labels. The index may hold an array, a single string or nothing usable
type Tags []string

// UnmarshalJSON accepts an array of strings or a single string. Non-string entries are skipped
// and any other shape decodes to no tags
func (t *Tags) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*t = nil
		if one != "" {
			*t = Tags{one}
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		*t = nil
		return nil
	}

	out := make(Tags, 0, len(items))
	for _, item := range items {
		var tag string
		if err := json.Unmarshal(item, &tag); err == nil {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

// Document is a single search hit returned by the retriever. It is never persisted
type Document struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     Tags     `json:"tags"`
	Content  string   `json:"content"`
	Sources  []Link   `json:"sources"`
}

// Reply is the outcome of a single conversation turn
type Reply struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Turn converts the reply into an assistant turn
func (r Reply) Turn() Turn {
	return AssistantTurn(r.Text, r.Sources)
}
