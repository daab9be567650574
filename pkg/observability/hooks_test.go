package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/observability"
)

func TestCombine_FansOutAndSkipsNil(t *testing.T) {
	var first, second, renders int

	combined := observability.Combine(
		domain.LifecycleHooks{
			OnPrune: func(context.Context, *domain.PruneEvent) { first++ },
		},
		domain.LifecycleHooks{
			OnPrune:  func(context.Context, *domain.PruneEvent) { second++ },
			OnRender: func(context.Context, *domain.RenderEvent) { renders++ },
		},
	)

	combined.OnPrune(context.Background(), &domain.PruneEvent{Path: "root/0"})
	combined.OnRender(context.Background(), &domain.RenderEvent{})
	combined.OnEvaluate(context.Background(), &domain.NodeEvent{}) // nobody listens

	if first != 1 || second != 1 {
		t.Errorf("expected each prune hook called once, got %d and %d", first, second)
	}
	if renders != 1 {
		t.Errorf("expected one render call, got %d", renders)
	}
}

func TestLoggingHooks_AuditsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hooks := observability.LoggingHooks(logger)
	hooks.OnPrune(context.Background(), &domain.PruneEvent{Path: "root/1", Priority: 10, Cost: 14})
	hooks.OnRender(context.Background(), &domain.RenderEvent{Messages: 2, TokenCount: 20, Budget: 64})

	out := buf.String()
	for _, want := range []string{"prune decision", "path=root/1", "render complete", "tokens=20"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

// The recorder is fed through a real engine so the paths it captures are the
// ones the pruner reports.
func TestPruneRecorder_CapturesRenderOutcome(t *testing.T) {
	recorder := &observability.PruneRecorder{}

	eng, err := espalier.New(
		espalier.WithLifecycleHooks(recorder.Hooks()),
	)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	root := dsl.Group(
		dsl.System(dsl.Text("You are terse.")).Priority(100),
		dsl.User(dsl.Text("Tell me everything about the architecture.")).Priority(10),
	).Build()

	result, err := eng.Render(context.Background(), root, domain.Endpoint{MaxPromptTokens: 10})
	if err != nil {
		t.Fatalf("Render() failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("expected the low-priority message pruned, got %d messages", len(result.Messages))
	}

	if kept := recorder.Kept(); len(kept) != 1 || kept[0] != "root/0" {
		t.Errorf("Kept() = %v, want [root/0]", kept)
	}
	if dropped := recorder.Dropped(); len(dropped) != 1 || dropped[0] != "root/1" {
		t.Errorf("Dropped() = %v, want [root/1]", dropped)
	}

	recorder.Reset()
	if len(recorder.Kept()) != 0 || len(recorder.Dropped()) != 0 {
		t.Error("Reset() should clear recorded decisions")
	}
}
