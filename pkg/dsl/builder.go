package dsl

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// ElementBuilder provides a fluent API for configuring one prompt element.
type ElementBuilder struct {
	el *domain.Element
}

// Group wraps elements into a fragment. A fragment carries no role or cost of
// its own; its children are spliced into the surrounding sequence.
func Group(children ...*ElementBuilder) *ElementBuilder {
	return &ElementBuilder{el: &domain.Element{
		Kind:     domain.KindFragment,
		Children: build(children),
	}}
}

// System declares a system message wrapping the given children.
func System(children ...*ElementBuilder) *ElementBuilder {
	return roleMessage(domain.RoleSystem, children)
}

// User declares a user message wrapping the given children.
func User(children ...*ElementBuilder) *ElementBuilder {
	return roleMessage(domain.RoleUser, children)
}

// Assistant declares an assistant message wrapping the given children.
func Assistant(children ...*ElementBuilder) *ElementBuilder {
	return roleMessage(domain.RoleAssistant, children)
}

func roleMessage(role domain.Role, children []*ElementBuilder) *ElementBuilder {
	return &ElementBuilder{el: &domain.Element{
		Kind:     domain.KindMessage,
		Role:     role,
		Children: build(children),
	}}
}

// Text declares a literal text leaf.
func Text(content string) *ElementBuilder {
	return &ElementBuilder{el: &domain.Element{
		Kind: domain.KindText,
		Text: content,
	}}
}

// Textf declares a literal text leaf from a format string.
func Textf(format string, args ...any) *ElementBuilder {
	return Text(fmt.Sprintf(format, args...))
}

// Component declares a deferred node whose render step runs once the
// allocator has decided its token grant.
func Component(name string, fn domain.RenderFunc) *ElementBuilder {
	return &ElementBuilder{el: &domain.Element{
		Kind:   domain.KindComponent,
		Name:   name,
		Render: fn,
	}}
}

// Priority ranks the element for pruning; higher survives longer.
func (b *ElementBuilder) Priority(p int) *ElementBuilder {
	b.el.Priority = p
	return b
}

// Grow opts the element into cooperative sizing with the given weight.
func (b *ElementBuilder) Grow(weight float64) *ElementBuilder {
	b.el.Grow = weight
	return b
}

// Basis reserves a number of tokens for the element before proportional
// growth is computed. On a zero-weight element it acts as a fixed cap.
func (b *ElementBuilder) Basis(tokens int) *ElementBuilder {
	b.el.Basis = tokens
	return b
}

// Prunable marks the element as an independently prunable unit, so a tight
// budget can shed it without shedding its enclosing message.
func (b *ElementBuilder) Prunable() *ElementBuilder {
	b.el.Prunable = true
	return b
}

// Speaker tags a message with a speaker name, passed through to the output.
func (b *ElementBuilder) Speaker(name string) *ElementBuilder {
	b.el.Name = name
	return b
}

// Props sets the property bag handed to a component's render step.
func (b *ElementBuilder) Props(props map[string]any) *ElementBuilder {
	b.el.Props = props
	return b
}

// Prop sets a single property, allocating the bag on first use.
func (b *ElementBuilder) Prop(key string, value any) *ElementBuilder {
	if b.el.Props == nil {
		b.el.Props = make(map[string]any)
	}
	b.el.Props[key] = value
	return b
}

// Ref attaches opaque metadata that surfaces in the RenderResult when the
// element survives pruning.
func (b *ElementBuilder) Ref(refs ...any) *ElementBuilder {
	b.el.References = append(b.el.References, refs...)
	return b
}

// Append adds children to the element.
func (b *ElementBuilder) Append(children ...*ElementBuilder) *ElementBuilder {
	b.el.Children = append(b.el.Children, build(children)...)
	return b
}

// Build returns the underlying domain.Element.
func (b *ElementBuilder) Build() *domain.Element {
	return b.el
}

func build(children []*ElementBuilder) []*domain.Element {
	if len(children) == 0 {
		return nil
	}
	els := make([]*domain.Element, len(children))
	for i, c := range children {
		els[i] = c.el
	}
	return els
}
