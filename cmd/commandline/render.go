package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ethanbaker/civicchat/internal/stores/session"
	"github.com/ethanbaker/civicchat/pkg/civic"
)

const pendingText = "Looking that up..."

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true).
			Padding(0, 1)

	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(76)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// renderTurn draws one transcript entry as a labelled bubble
func renderTurn(turn civic.Turn) string {
	var b strings.Builder

	if turn.Speaker == civic.SpeakerUser {
		b.WriteString(userStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(bubbleStyle.BorderForeground(lipgloss.Color("39")).Render(turn.Text))
		return b.String()
	}

	b.WriteString(assistantStyle.Render("CivicChat"))
	b.WriteString("\n")
	b.WriteString(bubbleStyle.BorderForeground(lipgloss.Color("135")).Render(turn.Text))
	for _, src := range turn.Sources {
		b.WriteString("\n")
		b.WriteString(sourceStyle.Render(fmt.Sprintf("• %s %s", src.Title, src.URL)))
	}
	return b.String()
}

func renderPending() string {
	return assistantStyle.Render("CivicChat") + "\n" + hintStyle.Render(pendingText)
}

func renderError(text string) string {
	return assistantStyle.Render("CivicChat") + "\n" + bubbleStyle.BorderForeground(lipgloss.Color("196")).Render(errorStyle.Render(text))
}

// renderTranscript draws a whole session, including the placeholder when an answer is outstanding
func renderTranscript(s session.Session) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(s.Title))
	b.WriteString(" ")
	b.WriteString(idStyle.Render(s.ID))
	b.WriteString("\n\n")

	if len(s.Transcript) == 0 && !s.Pending {
		b.WriteString(hintStyle.Render("No messages yet."))
		return b.String()
	}

	for i, turn := range s.Transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(renderTurn(turn))
	}
	if s.Pending {
		b.WriteString("\n\n")
		b.WriteString(renderPending())
	}
	return b.String()
}

// renderSessionList draws the saved sessions with the active one marked
func renderSessionList(sessions []session.Session, activeID string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Sessions (%s)", countStyle.Render(fmt.Sprint(len(sessions))))))
	b.WriteString("\n")

	for _, s := range sessions {
		marker := "  "
		if s.ID == activeID {
			marker = "▸ "
		}
		b.WriteString(fmt.Sprintf("%s%s %s %s\n",
			marker,
			titleStyle.Render(s.Title),
			idStyle.Render(s.ID),
			hintStyle.Render(fmt.Sprintf("(%d messages)", len(s.Transcript))),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}
