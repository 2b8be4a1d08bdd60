package prompt

import (
	"fmt"
	"strings"
)

type fact struct {
	key   string
	value string
}

type section struct {
	heading string
	body    string
}

// Builder helps construct system prompts from fixed instructions, key facts and named sections.
// Output is deterministic: facts and sections render in insertion order
type Builder struct {
	instructions string
	facts        []fact
	sections     []section
}

// NewBuilder creates a new prompt builder with base instructions
func NewBuilder(instructions string) *Builder {
	return &Builder{
		instructions: instructions,
	}
}

// AddFact adds a key-value fact to the prompt. Re-adding a key replaces its value in place
func (b *Builder) AddFact(key, value string) *Builder {
	for i := range b.facts {
		if b.facts[i].key == key {
			b.facts[i].value = value
			return b
		}
	}
	b.facts = append(b.facts, fact{key: key, value: value})
	return b
}

// AddSection appends a headed block of free text to the prompt
func (b *Builder) AddSection(heading, body string) *Builder {
	b.sections = append(b.sections, section{heading: heading, body: body})
	return b
}

// Build constructs the final prompt
func (b *Builder) Build() string {
	var parts []string

	parts = append(parts, b.instructions)

	if len(b.facts) > 0 {
		parts = append(parts, "\n## Key Facts:")
		for _, f := range b.facts {
			parts = append(parts, fmt.Sprintf("- %s: %s", f.key, f.value))
		}
	}

	for _, s := range b.sections {
		parts = append(parts, fmt.Sprintf("\n## %s:", s.heading), s.body)
	}

	return strings.Join(parts, "\n")
}
