package composer

import (
	"fmt"
	"strings"

	"github.com/ethanbaker/civicchat/pkg/civic"
)

// EmptyContext is composed when retrieval produced nothing, so the prompt always states whether context exists
const EmptyContext = "(no documents found)"

const (
	DefaultMaxDocuments    = 5
	DefaultMaxContentRunes = 4000
	truncationMarker       = "..."
)

// Composer renders retrieved documents into the labeled context block handed to the generator
type Composer struct {
	MaxDocuments    int // values below 1 use DefaultMaxDocuments
	MaxContentRunes int // values below 1 use DefaultMaxContentRunes
}

// New creates a composer with the default bounds
func New() Composer {
	return Composer{
		MaxDocuments:    DefaultMaxDocuments,
		MaxContentRunes: DefaultMaxContentRunes,
	}
}

// Compose renders documents with the default bounds
func Compose(docs []civic.Document) string {
	return New().Compose(docs)
}

// Select returns the documents that Compose will render, in input order
func (c Composer) Select(docs []civic.Document) []civic.Document {
	limit := c.MaxDocuments
	if limit < 1 {
		limit = DefaultMaxDocuments
	}
	if len(docs) > limit {
		return docs[:limit]
	}
	return docs
}

// Compose renders each selected document as a numbered block. Blocks are separated by a blank line
func (c Composer) Compose(docs []civic.Document) string {
	selected := c.Select(docs)
	if len(selected) == 0 {
		return EmptyContext
	}

	blocks := make([]string, 0, len(selected))
	for i, doc := range selected {
		blocks = append(blocks, c.block(i+1, doc))
	}

	return strings.Join(blocks, "\n\n")
}

func (c Composer) block(index int, doc civic.Document) string {
	sources := make([]string, 0, len(doc.Sources))
	for _, link := range doc.Sources {
		if s := link.String(); s != "" {
			sources = append(sources, s)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Document %d:\n", index)
	fmt.Fprintf(&sb, "Title: %s\n", doc.Title)
	fmt.Fprintf(&sb, "Category: %s\n", doc.Category)
	fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(doc.Tags, ", "))
	fmt.Fprintf(&sb, "Content: %s\n", c.truncate(doc.Content))
	fmt.Fprintf(&sb, "Sources: %s", strings.Join(sources, ", "))
	return sb.String()
}

func (c Composer) truncate(content string) string {
	limit := c.MaxContentRunes
	if limit < 1 {
		limit = DefaultMaxContentRunes
	}

	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + truncationMarker
}

// SourcesOf collects the distinct citations of the given documents in order, deduplicated by URL.
// A link without a URL is skipped; a link without a title takes its document's title
func SourcesOf(docs []civic.Document) []civic.Source {
	var sources []civic.Source
	seen := make(map[string]struct{})

	for _, doc := range docs {
		for _, link := range doc.Sources {
			url := strings.TrimSpace(link.URL)
			if url == "" {
				continue
			}
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}

			title := strings.TrimSpace(link.Title)
			if title == "" {
				title = doc.Title
			}
			sources = append(sources, civic.Source{Title: title, URL: url})
		}
	}

	return sources
}
