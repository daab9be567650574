package dsl

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

func wordSizing(budget int) domain.Sizing {
	countText := func(ctx context.Context, text string) (int, error) {
		return len(strings.Fields(text)), nil
	}
	countMessage := func(ctx context.Context, msg domain.Message) (int, error) {
		words, _ := countText(ctx, msg.Content)
		return words + 1, nil
	}
	return domain.NewSizing(budget, countText, countMessage)
}

func TestBuilder_ConversationTree(t *testing.T) {
	// 1. Build the tree using the DSL
	tree := Group(
		System(Text("You are a terse assistant.")).Priority(100),
		User(Text("Hi "), Text("there")).Priority(90).Speaker("ada"),
		Component("ctx", func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
			return nil, nil
		}).Grow(2).Basis(50).Prop("depth", 3),
	).Build()

	// 2. Verify the shape
	if tree.Kind != domain.KindFragment {
		t.Fatalf("Expected a fragment root, got %q", tree.Kind)
	}
	if len(tree.Children) != 3 {
		t.Fatalf("Expected 3 children, got %d", len(tree.Children))
	}

	system := tree.Children[0]
	if system.Kind != domain.KindMessage || system.Role != domain.RoleSystem {
		t.Errorf("Unexpected system element: %+v", system)
	}
	if system.Priority != 100 {
		t.Errorf("Expected priority 100, got %d", system.Priority)
	}

	user := tree.Children[1]
	if user.Role != domain.RoleUser || user.Name != "ada" {
		t.Errorf("Unexpected user element: %+v", user)
	}
	if len(user.Children) != 2 || user.Children[0].Text != "Hi " {
		t.Errorf("Unexpected user children: %+v", user.Children)
	}

	comp := tree.Children[2]
	if comp.Kind != domain.KindComponent || comp.Render == nil {
		t.Errorf("Unexpected component element: %+v", comp)
	}
	if comp.Grow != 2 || comp.Basis != 50 {
		t.Errorf("Expected grow 2 basis 50, got %v/%d", comp.Grow, comp.Basis)
	}
	if comp.Props["depth"] != 3 {
		t.Errorf("Expected prop depth=3, got %v", comp.Props)
	}
}

func TestBuilder_RefAndPrunable(t *testing.T) {
	el := User(Text("scratch")).Prunable().Ref("a", "b").Build()

	if !el.Prunable {
		t.Errorf("Expected the element to be prunable")
	}
	if len(el.References) != 2 {
		t.Errorf("Expected 2 references, got %v", el.References)
	}
}

func TestLines_PacksToGrant(t *testing.T) {
	items := []string{"alpha", "bravo", "charlie", "delta"}
	el := Lines(domain.RoleUser, items).Build()

	// A grant of 3 fits two one-word lines plus the message framing.
	subtree, err := el.Render(context.Background(), nil, wordSizing(3))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree == nil {
		t.Fatal("Expected content, got nothing")
	}
	if got := subtree.Children[0].Text; got != "alpha\nbravo" {
		t.Errorf("Expected the first two lines, got %q", got)
	}
}

func TestLines_NothingFits(t *testing.T) {
	el := Lines(domain.RoleUser, []string{"some line"}).Build()

	subtree, err := el.Render(context.Background(), nil, wordSizing(1))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree != nil {
		t.Errorf("Expected nothing to fit, got %+v", subtree)
	}
}

func TestTailLines_KeepsNewest(t *testing.T) {
	items := []string{"oldest", "older", "newer", "newest"}
	el := TailLines(domain.RoleUser, items).Build()

	subtree, err := el.Render(context.Background(), nil, wordSizing(3))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree == nil {
		t.Fatal("Expected content, got nothing")
	}
	if got := subtree.Children[0].Text; got != "newer\nnewest" {
		t.Errorf("Expected the two newest lines in order, got %q", got)
	}
}
