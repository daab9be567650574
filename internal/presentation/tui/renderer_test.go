package tui_test

import (
	"strings"
	"testing"

	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestTranscriptMarkdown(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: "Stay on topic."},
		{Role: domain.RoleUser, Name: "ada", Content: "What is flex sizing?"},
	}

	got := tui.TranscriptMarkdown(msgs)

	for _, want := range []string{
		"### system\n\nStay on topic.\n",
		"### user (ada)\n\nWhat is flex sizing?\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("TranscriptMarkdown() = %q, want substring %q", got, want)
		}
	}
	if strings.Index(got, "### system") > strings.Index(got, "### user") {
		t.Error("messages should keep declaration order")
	}
}

func TestTranscriptMarkdown_Empty(t *testing.T) {
	if got := tui.TranscriptMarkdown(nil); got != "" {
		t.Errorf("expected empty document, got %q", got)
	}
}
