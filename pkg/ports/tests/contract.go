package tests

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// PackLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.PackLoader.
func PackLoaderContractTest(t *testing.T, loader ports.PackLoader, setupData map[string][]byte) {
	t.Helper()

	// 1. Test GetSection (Success)
	t.Run("GetSection_Success", func(t *testing.T) {
		for id, expectedContent := range setupData {
			content, err := loader.GetSection(id)
			if err != nil {
				t.Fatalf("unexpected error getting section %s: %v", id, err)
			}
			if string(content) != string(expectedContent) {
				t.Errorf("content mismatch for %s. got %q, want %q", id, content, expectedContent)
			}
		}
	})

	// 2. Test GetSection (NotFound)
	t.Run("GetSection_NotFound", func(t *testing.T) {
		_, err := loader.GetSection("non-existent-section")
		if err == nil {
			t.Error("expected error for non-existent section, got nil")
		}
	})

	// 3. Test ListSections
	t.Run("ListSections", func(t *testing.T) {
		sections, err := loader.ListSections()
		if err != nil {
			t.Fatalf("unexpected error listing sections: %v", err)
		}

		if len(sections) != len(setupData) {
			t.Errorf("expected %d sections, got %d", len(setupData), len(sections))
		}

		lookup := make(map[string]bool)
		for _, id := range sections {
			lookup[id] = true
		}

		for id := range setupData {
			if !lookup[id] {
				t.Errorf("section %s missing from list", id)
			}
		}
	})
}

// TokenizerContractTest verifies the behavior every ports.Tokenizer must provide:
// deterministic, non-negative counts and message overhead accounting.
func TokenizerContractTest(t *testing.T, tok ports.Tokenizer) {
	t.Helper()
	ctx := context.Background()

	t.Run("Deterministic", func(t *testing.T) {
		first, err := tok.CountText(ctx, "the same input twice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := tok.CountText(ctx, "the same input twice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first != second {
			t.Errorf("counts differ for identical input: %d vs %d", first, second)
		}
	})

	t.Run("NonNegative", func(t *testing.T) {
		n, err := tok.CountText(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n < 0 {
			t.Errorf("empty string cost %d, want >= 0", n)
		}
	})

	t.Run("Monotone_On_Prefix", func(t *testing.T) {
		short, err := tok.CountText(ctx, "alpha beta")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		long, err := tok.CountText(ctx, "alpha beta gamma delta epsilon")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if long < short {
			t.Errorf("longer text cost less: %d < %d", long, short)
		}
	})

	t.Run("Message_Overhead", func(t *testing.T) {
		content := "measure me as a message"
		text, err := tok.CountText(ctx, content)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		msg, err := tok.CountMessage(ctx, domain.Message{Role: domain.RoleUser, Content: content})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg < text {
			t.Errorf("message cost %d below its text cost %d", msg, text)
		}
	})
}
