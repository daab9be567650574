package middleware_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
)

func TestPIIMiddleware_MasksContentAtRest(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{
		`[\w.+-]+@[\w-]+\.[\w.]+`, // email addresses
		`\b\d{16}\b`,              // card numbers
	})
	store := mw(underlying)

	ctx := context.Background()
	original := domain.Message{
		Role:    domain.RoleUser,
		Content: "Reach me at ada@example.com, card 4539148803436467.",
	}

	if err := store.Append(ctx, "s1", original); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// The underlying store never sees the PII.
	stored, err := underlying.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(stored[0].Content, "ada@example.com") {
		t.Errorf("email leaked to the store: %q", stored[0].Content)
	}
	if strings.Contains(stored[0].Content, "4539148803436467") {
		t.Errorf("card number leaked to the store: %q", stored[0].Content)
	}
	if want := "Reach me at ***, card ***."; stored[0].Content != want {
		t.Errorf("got %q, want %q", stored[0].Content, want)
	}

	// Redaction is at rest; Load returns the masked text.
	loaded, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].Content != stored[0].Content {
		t.Errorf("Load should return stored content, got %q", loaded[0].Content)
	}

	// The caller's message is untouched.
	if !strings.Contains(original.Content, "ada@example.com") {
		t.Error("the caller's message must not be mutated")
	}
}

func TestPIIMiddleware_LeavesCleanContentAlone(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`})
	store := mw(underlying)

	ctx := context.Background()
	msg := domain.Message{Role: domain.RoleAssistant, Content: "Nothing sensitive here."}

	if err := store.Append(ctx, "s2", msg); err != nil {
		t.Fatal(err)
	}

	stored, err := underlying.Load(ctx, "s2")
	if err != nil {
		t.Fatal(err)
	}
	if stored[0] != msg {
		t.Errorf("clean message changed: got %+v, want %+v", stored[0], msg)
	}
}

func TestPIIMiddleware_MasksSpeakerNames(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewPIIMiddleware([]string{`[\w.+-]+@[\w-]+\.[\w.]+`})
	store := mw(underlying)

	ctx := context.Background()
	msg := domain.Message{Role: domain.RoleUser, Name: "ada@example.com", Content: "hi"}

	if err := store.Append(ctx, "s3", msg); err != nil {
		t.Fatal(err)
	}

	stored, err := underlying.Load(ctx, "s3")
	if err != nil {
		t.Fatal(err)
	}
	if stored[0].Name != middleware.Mask {
		t.Errorf("speaker name should be masked, got %q", stored[0].Name)
	}
}
