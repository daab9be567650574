package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		root     *domain.Element
		overlay  *graph.RenderOverlay
		contains []string
	}{
		{
			name: "Fragment Root Splices Into Top Group",
			root: &domain.Element{
				Kind: domain.KindFragment,
				Children: []*domain.Element{
					{Kind: domain.KindMessage, Role: domain.RoleSystem},
					{Kind: domain.KindMessage, Role: domain.RoleUser},
				},
			},
			contains: []string{
				"root((\"root\"))",
				"root_0[/\"system\"/]",
				"root_1[/\"user\"/]",
				"root --> root_0",
				"root --> root_1",
			},
		},
		{
			name: "Message Root Addressed Like Engine Events",
			root: &domain.Element{Kind: domain.KindMessage, Role: domain.RoleSystem},
			contains: []string{
				"root_0[/\"system\"/]",
				"root --> root_0",
			},
		},
		{
			name: "Text Excerpt And Escaping",
			root: &domain.Element{
				Kind: domain.KindMessage,
				Role: domain.RoleSystem,
				Children: []*domain.Element{
					{Kind: domain.KindText, Text: "Say \"hello\" to the operator on duty"},
				},
			},
			contains: []string{
				"root_0_0[\"Say 'hello' to the opera…\"]",
			},
		},
		{
			name: "Component Shapes",
			root: &domain.Element{
				Kind: domain.KindFragment,
				Children: []*domain.Element{
					{Kind: domain.KindComponent, Name: "ticker"},
					{Kind: domain.KindComponent},
				},
			},
			contains: []string{
				"root_0[[\"ticker\"]]",
				"root_1[[\"component\"]]",
			},
		},
		{
			name: "Sizing Annotations",
			root: &domain.Element{
				Kind:     domain.KindMessage,
				Role:     domain.RoleUser,
				Name:     "ada",
				Priority: 90,
				Grow:     2,
				Basis:    64,
			},
			contains: []string{
				"root_0[/\"user (ada) <br/> P90 grow 2 basis 64\"/]",
			},
		},
		{
			name: "Prunable Child On Dotted Edge",
			root: &domain.Element{
				Kind: domain.KindMessage,
				Role: domain.RoleSystem,
				Children: []*domain.Element{
					{Kind: domain.KindText, Text: "optional", Prunable: true},
				},
			},
			contains: []string{
				"root_0 -.-> root_0_0",
			},
		},
		{
			name: "Overlay Classes",
			root: &domain.Element{
				Kind: domain.KindFragment,
				Children: []*domain.Element{
					{Kind: domain.KindMessage, Role: domain.RoleSystem},
					{Kind: domain.KindMessage, Role: domain.RoleUser},
				},
			},
			overlay: &graph.RenderOverlay{
				Kept:    []string{"root/0", "root/0"},
				Dropped: []string{"root/1"},
			},
			contains: []string{
				"classDef kept",
				"classDef dropped",
				"class root_0 kept;",
				"class root_1 dropped;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.root, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateMermaid_DeduplicatesOverlay(t *testing.T) {
	root := &domain.Element{Kind: domain.KindMessage, Role: domain.RoleSystem}
	got := graph.GenerateMermaid(root, &graph.RenderOverlay{Kept: []string{"root/0", "root/0"}})
	if n := strings.Count(got, "class root_0 kept;"); n != 1 {
		t.Errorf("expected one kept class line, got %d:\n%s", n, got)
	}
}
