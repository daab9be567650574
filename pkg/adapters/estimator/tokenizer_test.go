package estimator

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports/tests"
)

func TestTokenizer_Contract(t *testing.T) {
	tests.TokenizerContractTest(t, New())
}

func TestCountText(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		text string
		want int
	}{
		{"Empty", "", 0},
		{"Four Chars Is One Token", "abcd", 1},
		{"Rounds To Nearest", "abcdef", 2}, // 6/4 = 1.5 rounds up
		{"Runes Not Bytes", "ação", 1},     // 4 runes, 6 bytes
	}

	tok := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tok.CountText(ctx, tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("CountText(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestCountMessage_AddsOverhead(t *testing.T) {
	ctx := context.Background()
	tok := New(WithMessageOverhead(3))

	text, _ := tok.CountText(ctx, "hello there")
	msg, err := tok.CountMessage(ctx, domain.Message{Role: domain.RoleUser, Content: "hello there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != text+3 {
		t.Errorf("CountMessage = %d, want text cost %d + overhead 3", msg, text)
	}
}

func TestCountText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().CountText(ctx, "anything"); err == nil {
		t.Error("expected error after cancellation")
	}
}

func TestOptions_IgnoreInvalid(t *testing.T) {
	tok := New(WithCharsPerToken(-1), WithMessageOverhead(-5))
	if tok.charsPerToken != DefaultCharsPerToken {
		t.Errorf("charsPerToken = %v, want default", tok.charsPerToken)
	}
	if tok.messageOverhead != DefaultMessageOverhead {
		t.Errorf("messageOverhead = %v, want default", tok.messageOverhead)
	}
}
