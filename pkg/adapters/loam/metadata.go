package loam

// SectionMetadata represents the frontmatter of an espalier section file.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
// The Markdown body below the frontmatter becomes the section's text.
type SectionMetadata struct {
	ID   string `json:"id" mapstructure:"id"`
	Kind string `json:"kind" mapstructure:"kind"`

	// Role turns the section into a chat message container. Sections
	// without a role splice their children into the parent.
	Role string `json:"role" mapstructure:"role"`

	// Priority ranks the section when the budget forces pruning.
	Priority int `json:"priority" mapstructure:"priority"`

	// Flex sizing. Grow opts into cooperative sizing; Basis reserves
	// tokens before proportional growth.
	Grow  float64 `json:"grow" mapstructure:"grow"`
	Basis int     `json:"basis" mapstructure:"basis"`

	// Prunable marks the section as independently droppable even when it
	// is nested inside a message.
	Prunable bool `json:"prunable" mapstructure:"prunable"`

	// Speaker is an optional name tag threaded through to the output.
	Speaker string `json:"speaker" mapstructure:"speaker"`

	// Component Config
	Component string         `json:"component" mapstructure:"component"`
	Props     map[string]any `json:"props" mapstructure:"props"`

	// PropsSchema declares expected prop types ("string", "int", "[string]")
	// that the compiler validates props against.
	PropsSchema map[string]string `json:"props_schema" mapstructure:"props_schema"`

	// Refs are opaque reference strings collected into the render result
	// when the section survives pruning.
	Refs []string `json:"refs" mapstructure:"refs"`

	Children []SectionNode `json:"children" mapstructure:"children"`
}

// SectionNode is one inline element in a section's children list. Setting
// Section makes it a reference to another section in the pack instead of a
// literal node; the compiler resolves references and rejects cycles.
type SectionNode struct {
	Section string `json:"section,omitempty" mapstructure:"section"`

	Kind      string         `json:"kind,omitempty" mapstructure:"kind"`
	Role      string         `json:"role,omitempty" mapstructure:"role"`
	Text      string         `json:"text,omitempty" mapstructure:"text"`
	Priority  int            `json:"priority,omitempty" mapstructure:"priority"`
	Grow      float64        `json:"grow,omitempty" mapstructure:"grow"`
	Basis     int            `json:"basis,omitempty" mapstructure:"basis"`
	Prunable  bool           `json:"prunable,omitempty" mapstructure:"prunable"`
	Speaker     string            `json:"speaker,omitempty" mapstructure:"speaker"`
	Component   string            `json:"component,omitempty" mapstructure:"component"`
	Props       map[string]any    `json:"props,omitempty" mapstructure:"props"`
	PropsSchema map[string]string `json:"props_schema,omitempty" mapstructure:"props_schema"`
	Refs        []string          `json:"refs,omitempty" mapstructure:"refs"`
	Children    []SectionNode     `json:"children,omitempty" mapstructure:"children"`
}
