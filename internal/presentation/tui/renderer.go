package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/aretw0/espalier/pkg/domain"
)

// NewRenderer returns a function that renders markdown using glamour.
// It uses a dark theme by default, but could be configurable.
func NewRenderer() func(string) (string, error) {
	// Initialize renderer with standard dark style
	// In the future, we can inject style preferences here.
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// TranscriptMarkdown lays a rendered prompt out as a markdown document, one
// heading per message. Speaker names join the heading in parentheses.
func TranscriptMarkdown(msgs []domain.Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		header := string(m.Role)
		if m.Name != "" {
			header = fmt.Sprintf("%s (%s)", m.Role, m.Name)
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n%s\n", header, m.Content))
	}
	return sb.String()
}

// RenderTranscript pretty-prints messages for a terminal. When stdout is not
// a TTY the markdown passes through unstyled, so output stays pipeable.
func RenderTranscript(msgs []domain.Message) string {
	md := TranscriptMarkdown(msgs)
	if !Interactive() {
		return md
	}
	styled, err := NewRenderer()(md)
	if err != nil {
		return md
	}
	return styled
}

// Interactive reports whether stdout is attached to a terminal.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
