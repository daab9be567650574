package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/domain"
)

// fillToGrant is a component that produces a user message costing exactly the
// budget it was granted.
func fillToGrant(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
	return &domain.Element{
		Kind:     domain.KindMessage,
		Role:     domain.RoleUser,
		Children: []*domain.Element{{Kind: domain.KindText, Text: words(max(sizing.Budget-1, 0))}},
	}, nil
}

// grantRecorder keeps the last allocation seen per path.
type grantRecorder struct {
	grants map[string]int
	used   map[string]int
	rounds map[string]int
}

func newGrantRecorder() *grantRecorder {
	return &grantRecorder{grants: map[string]int{}, used: map[string]int{}, rounds: map[string]int{}}
}

func (r *grantRecorder) hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAllocate: func(ctx context.Context, e *domain.NodeEvent) {
			r.grants[e.Path] = e.Budget
			r.used[e.Path] = e.Cost
			r.rounds[e.Path] = e.Round
		},
	}
}

func TestAllocate_SplitsPoolByWeight(t *testing.T) {
	rec := newGrantRecorder()
	root := group(
		&domain.Element{Kind: domain.KindComponent, Name: "a", Grow: 3, Render: fillToGrant},
		&domain.Element{Kind: domain.KindComponent, Name: "b", Grow: 2, Render: fillToGrant},
		&domain.Element{Kind: domain.KindComponent, Name: "c", Grow: 1, Render: fillToGrant},
	)

	render(t, root, 60, runtime.WithLifecycleHooks(rec.hooks()))

	want := map[string]int{"root/0": 30, "root/1": 20, "root/2": 10}
	for path, grant := range want {
		if rec.grants[path] != grant {
			t.Errorf("Expected %s to be granted %d, got %d", path, grant, rec.grants[path])
		}
	}
}

func TestAllocate_HonorsBasisReservation(t *testing.T) {
	// A's 20-token reservation comes off the top; the remaining 20 split
	// evenly between equal weights.
	rec := newGrantRecorder()
	root := group(
		&domain.Element{Kind: domain.KindComponent, Name: "a", Grow: 1, Basis: 20, Render: fillToGrant},
		&domain.Element{Kind: domain.KindComponent, Name: "b", Grow: 1, Render: fillToGrant},
	)

	render(t, root, 40, runtime.WithLifecycleHooks(rec.hooks()))

	if rec.grants["root/0"] != 30 {
		t.Errorf("Expected the reserved node to be granted 30, got %d", rec.grants["root/0"])
	}
	if rec.grants["root/1"] != 10 {
		t.Errorf("Expected the unreserved node to be granted 10, got %d", rec.grants["root/1"])
	}
}

func TestAllocate_ZeroWeightIsFixedAtBasis(t *testing.T) {
	// Without a grow weight, a basis is a cap rather than a starting point.
	var seen int
	probe := func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		seen = sizing.Budget
		return nil, nil
	}
	root := group(
		message(domain.RoleSystem, 100, "a b"),
		&domain.Element{Kind: domain.KindComponent, Name: "probe", Basis: 5, Render: probe},
	)

	render(t, root, 100)

	if seen != 5 {
		t.Errorf("Expected the zero-weight node to see a budget of 5, got %d", seen)
	}
}

func TestAllocate_FixedSiblingsClaimFirst(t *testing.T) {
	// The fixed turn is declared after the flexible one but still claims its
	// cost first; declaration order only governs the output sequence.
	rec := newGrantRecorder()
	root := group(
		&domain.Element{Kind: domain.KindComponent, Name: "log", Grow: 1, Render: fillToGrant},
		message(domain.RoleUser, 90, words(9)),
	)

	result := render(t, root, 30, runtime.WithLifecycleHooks(rec.hooks()))

	if rec.grants["root/0"] != 20 {
		t.Errorf("Expected the flexible node to be granted 20, got %d", rec.grants["root/0"])
	}
	if len(result.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result.Messages))
	}
	if result.Messages[1].Content != words(9) {
		t.Errorf("Expected the fixed turn to stay last in the output, got %+v", result.Messages)
	}
}

func TestAllocate_ReoffersUnusedBudget(t *testing.T) {
	// A tops out at 3 lines; its unused share must flow to B, which can keep
	// growing.
	rec := newGrantRecorder()
	root := group(
		&domain.Element{Kind: domain.KindComponent, Name: "a", Grow: 1, Render: growingLog(logLines(3))},
		&domain.Element{Kind: domain.KindComponent, Name: "b", Grow: 1, Render: growingLog(logLines(30))},
	)

	result := render(t, root, 24, runtime.WithLifecycleHooks(rec.hooks()))

	if rec.grants["root/1"] != 20 {
		t.Errorf("Expected the hungry node to end up with 20, got %d", rec.grants["root/1"])
	}
	if rec.rounds["root/1"] == 0 {
		t.Errorf("Expected the hungry node to grow in a later round")
	}
	if len(result.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result.Messages))
	}
	if got := len(strings.Fields(result.Messages[1].Content)); got != 19 {
		t.Errorf("Expected 19 lines in the regrown message, got %d", got)
	}
	if result.TokenCount != 24 {
		t.Errorf("Expected the full budget consumed, got %d", result.TokenCount)
	}
}

func TestAllocate_OverrunningComponentFails(t *testing.T) {
	greedy := func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		return &domain.Element{
			Kind:     domain.KindMessage,
			Role:     domain.RoleUser,
			Children: []*domain.Element{{Kind: domain.KindText, Text: words(sizing.Budget + 5)}},
		}, nil
	}
	engine := runtime.NewEngine(wordTokenizer{})
	root := group(&domain.Element{Kind: domain.KindComponent, Name: "greedy", Grow: 1, Render: greedy})

	_, err := engine.Render(context.Background(), root, domain.Endpoint{MaxPromptTokens: 20})

	var violation *domain.BudgetViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("Expected a budget violation, got %v", err)
	}
	if violation.Granted != 20 || violation.Reported != 26 {
		t.Errorf("Unexpected violation numbers: %+v", violation)
	}
}
