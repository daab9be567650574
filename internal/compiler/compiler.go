// Package compiler turns declarative section definitions into element trees.
//
// A definition arrives as YAML (a tree file given to the CLI) or as the
// canonical JSON a PackLoader emits; YAML parsing covers both. The compiler
// resolves section references through the loader, expands ${var}
// placeholders from the props bag, validates component props against their
// declared schema and binds component names to registered render steps.
package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// sectionDef is the wire shape of one section definition. The same shape
// appears at the top level of a tree file and in every children entry.
type sectionDef struct {
	ID      string `mapstructure:"id"`
	Section string `mapstructure:"section"`

	Kind        string            `mapstructure:"kind"`
	Role        string            `mapstructure:"role"`
	Text        string            `mapstructure:"text"`
	Priority    int               `mapstructure:"priority"`
	Grow        float64           `mapstructure:"grow"`
	Basis       int               `mapstructure:"basis"`
	Prunable    bool              `mapstructure:"prunable"`
	Speaker     string            `mapstructure:"speaker"`
	Component   string            `mapstructure:"component"`
	Props       map[string]any    `mapstructure:"props"`
	PropsSchema map[string]string `mapstructure:"props_schema"`
	Refs        []string          `mapstructure:"refs"`
	Children    []sectionDef      `mapstructure:"children"`
}

// Compiler builds domain.Element trees from section definitions.
type Compiler struct {
	loader   ports.PackLoader
	registry *registry.Registry
	vars     map[string]any
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithLoader enables section references; without a loader any "section:"
// entry fails to compile.
func WithLoader(loader ports.PackLoader) Option {
	return func(c *Compiler) {
		c.loader = loader
	}
}

// WithRegistry enables component references; without a registry any
// "component:" entry fails to compile.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Compiler) {
		c.registry = reg
	}
}

// WithVars sets the props bag that ${var} placeholders expand from.
func WithVars(vars map[string]any) Option {
	return func(c *Compiler) {
		c.vars = vars
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses one definition and builds its element tree.
func (c *Compiler) Compile(data []byte) (*domain.Element, error) {
	def, err := decode(data)
	if err != nil {
		return nil, err
	}
	return c.compile(def, make(map[string]bool))
}

// CompileSection loads the section with the given ID through the pack
// loader and builds its element tree.
func (c *Compiler) CompileSection(id string) (*domain.Element, error) {
	return c.resolveReference(id, make(map[string]bool))
}

func decode(data []byte) (sectionDef, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return sectionDef{}, fmt.Errorf("failed to parse section definition: %w", err)
	}
	if raw == nil {
		return sectionDef{}, fmt.Errorf("empty section definition")
	}

	var def sectionDef
	if err := mapstructure.Decode(raw, &def); err != nil {
		return sectionDef{}, fmt.Errorf("failed to decode section definition: %w", err)
	}
	return def, nil
}

func (c *Compiler) compile(def sectionDef, visited map[string]bool) (*domain.Element, error) {
	if def.Section != "" {
		return c.resolveReference(def.Section, visited)
	}

	if err := schema.CheckAttributes(def.Grow, def.Basis); err != nil {
		return nil, fmt.Errorf("%s: %w", describe(def), err)
	}

	kind := def.Kind
	if kind == "" {
		kind = inferKind(def)
	}
	if _, err := schema.ParseKind(kind); err != nil {
		return nil, fmt.Errorf("%s: %w", describe(def), err)
	}

	el := &domain.Element{
		Kind:     kind,
		Priority: def.Priority,
		Grow:     def.Grow,
		Basis:    def.Basis,
		Prunable: def.Prunable,
		Name:     def.Speaker,
	}
	for _, ref := range def.Refs {
		el.References = append(el.References, ref)
	}

	switch kind {
	case domain.KindText:
		if len(def.Children) > 0 {
			return nil, fmt.Errorf("%s: a text leaf cannot have children", describe(def))
		}
		el.Text = c.interpolate(def.Text)
		return el, nil

	case domain.KindMessage:
		role, err := schema.ParseRole(def.Role)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", describe(def), err)
		}
		el.Role = role

	case domain.KindComponent:
		if c.registry == nil {
			return nil, fmt.Errorf("%s: no component registry configured", describe(def))
		}
		render, err := c.registry.Resolve(def.Component)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", describe(def), err)
		}
		el.Render = render
		if el.Name == "" {
			el.Name = def.Component
		}
		el.Props = c.interpolateProps(def.Props)

		if len(def.PropsSchema) > 0 {
			propSchema, err := schema.ParseTypeMap(def.PropsSchema)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid props_schema: %w", describe(def), err)
			}
			if err := schema.Validate(propSchema, el.Props); err != nil {
				return nil, fmt.Errorf("%s: props rejected: %w", describe(def), err)
			}
		}
		return el, nil
	}

	// Body text on a container becomes a leading text child.
	if def.Text != "" {
		el.Children = append(el.Children, &domain.Element{
			Kind: domain.KindText,
			Text: c.interpolate(def.Text),
		})
	}

	for _, child := range def.Children {
		compiled, err := c.compile(child, visited)
		if err != nil {
			return nil, err
		}
		el.Children = append(el.Children, compiled)
	}

	return el, nil
}

// inferKind fills in the kind when a definition omits it: a component name
// makes it a component, a role makes it a message, a bare body is a text
// leaf and anything else splices into the parent.
func inferKind(def sectionDef) string {
	switch {
	case def.Component != "":
		return domain.KindComponent
	case def.Role != "":
		return domain.KindMessage
	case def.Text != "" && len(def.Children) == 0:
		return domain.KindText
	default:
		return domain.KindFragment
	}
}

func (c *Compiler) resolveReference(id string, visited map[string]bool) (*domain.Element, error) {
	if c.loader == nil {
		return nil, fmt.Errorf("section reference %q: no pack loader configured", id)
	}
	if visited[id] {
		return nil, fmt.Errorf("cycle detected in section references: %s", id)
	}

	// DFS cycle detection: mark, recurse, unmark.
	visited[id] = true
	defer delete(visited, id)

	raw, err := c.loader.GetSection(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load section %q: %w", id, err)
	}

	def, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("section %q: %w", id, err)
	}
	if def.Section != "" {
		return nil, fmt.Errorf("section %q: a section file cannot itself be a bare reference", id)
	}
	return c.compile(def, visited)
}

// describe names a definition for error messages.
func describe(def sectionDef) string {
	switch {
	case def.ID != "":
		return fmt.Sprintf("section %q", def.ID)
	case def.Component != "":
		return fmt.Sprintf("component %q", def.Component)
	default:
		return "section definition"
	}
}

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.-]*)\}`)

// interpolate expands ${var} placeholders from the props bag. Placeholders
// without a matching var pass through untouched, so literal text with
// dollar signs survives compilation.
func (c *Compiler) interpolate(text string) string {
	if len(c.vars) == 0 || !strings.Contains(text, "${") {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := c.vars[name]; ok {
			return fmt.Sprintf("%v", value)
		}
		return match
	})
}

func (c *Compiler) interpolateProps(props map[string]any) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for key, value := range props {
		out[key] = c.interpolateValue(value)
	}
	return out
}

func (c *Compiler) interpolateValue(value any) any {
	switch v := value.(type) {
	case string:
		return c.interpolate(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, sub := range v {
			out[key] = c.interpolateValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = c.interpolateValue(item)
		}
		return out
	default:
		return value
	}
}
