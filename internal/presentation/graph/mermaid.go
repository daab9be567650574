package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// RenderOverlay contains the outcome of a budgeted render pass to visualize
// on the graph. Paths use the engine's event addressing ("root/0/1").
type RenderOverlay struct {
	Kept    []string
	Dropped []string
}

const excerptRunes = 24

// GenerateMermaid produces a Mermaid flowchart syntax string from an element
// tree. It applies semantic styling:
// - Fragment: ((Circle))
// - Message: [/Parallelogram/] labeled with the role
// - Component: [[Subroutine]]
// - Text: [Rectangle] with a short excerpt
// Nodes are annotated with priority and flex attributes, prunable children
// hang off dotted edges, and overlay styles (Kept/Dropped) are applied if
// provided.
func GenerateMermaid(root *domain.Element, overlay *RenderOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// The engine evaluates a fragment root as the top-level group itself, so
	// the synthetic "root" node stands in for it and its children take the
	// paths the engine reports in events.
	sb.WriteString("    root((\"root\"))\n")
	top := []*domain.Element{root}
	if root != nil && root.Kind == domain.KindFragment {
		top = root.Children
	}
	for i, el := range top {
		writeElement(&sb, el, childPath("root", i), "root")
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef kept fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef dropped fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")

		writeClasses(&sb, overlay.Kept, "kept")
		writeClasses(&sb, overlay.Dropped, "dropped")
	}

	return sb.String()
}

func writeElement(sb *strings.Builder, el *domain.Element, path, parentID string) {
	if el == nil {
		return
	}
	safeID := sanitizeMermaidID(path)

	// Node Shape based on Kind
	opener, closer := "[", "]"
	label := el.Kind

	switch el.Kind {
	case domain.KindFragment:
		opener, closer = "((", "))" // Circle
	case domain.KindMessage:
		opener, closer = "[/", "/]" // Parallelogram
		label = string(el.Role)
		if el.Name != "" {
			label = fmt.Sprintf("%s (%s)", el.Role, el.Name)
		}
	case domain.KindComponent:
		opener, closer = "[[", "]]" // Subroutine
		if el.Name != "" {
			label = el.Name
		}
	case domain.KindText:
		label = excerpt(el.Text)
	}

	if notes := annotations(el); notes != "" {
		label = fmt.Sprintf("%s <br/> %s", label, notes)
	}
	sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

	// Edge from parent; prunable units detach on a dotted line.
	arrow := "-->"
	if el.Prunable {
		arrow = "-.->"
	}
	sb.WriteString(fmt.Sprintf("    %s %s %s\n", parentID, arrow, safeID))

	for i, c := range el.Children {
		writeElement(sb, c, childPath(path, i), safeID)
	}
}

// annotations summarizes the sizing attributes that change how the engine
// treats the node. Zero values stay silent.
func annotations(el *domain.Element) string {
	var parts []string
	if el.Priority != 0 {
		parts = append(parts, fmt.Sprintf("P%d", el.Priority))
	}
	if el.Grow > 0 {
		parts = append(parts, fmt.Sprintf("grow %g", el.Grow))
	}
	if el.Basis > 0 {
		parts = append(parts, fmt.Sprintf("basis %d", el.Basis))
	}
	return strings.Join(parts, " ")
}

// excerpt trims leaf text to a label-sized snippet and escapes double quotes
// for Mermaid.
func excerpt(text string) string {
	text = strings.ReplaceAll(text, "\"", "'")
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if len(runes) > excerptRunes {
		return string(runes[:excerptRunes]) + "…"
	}
	return text
}

func writeClasses(sb *strings.Builder, paths []string, class string) {
	// Deduplicate nodes (using safeIDs)
	seen := make(map[string]bool)
	for _, p := range paths {
		safeID := sanitizeMermaidID(p)
		if !seen[safeID] && safeID != "" {
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", safeID, class))
		}
	}
}

func childPath(parent string, index int) string {
	return fmt.Sprintf("%s/%d", parent, index)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
