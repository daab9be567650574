package domain

// Role identifies the speaker of a chat message.
type Role string

// Exactly three roles exist; each maps to a distinct message container kind
// in the element tree. Adapters translate them to vendor vocabularies.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged message in the flattened output.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Name is an optional speaker tag, passed through unchanged.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Endpoint describes the target a prompt is rendered for.
type Endpoint struct {
	// Model is advisory. The engine ignores it; target-format adapters and
	// logging may use it.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// MaxPromptTokens is the hard budget for the whole rendered prompt.
	// It must not be negative; zero renders an empty prompt.
	MaxPromptTokens int `json:"max_prompt_tokens" yaml:"max_prompt_tokens"`
}

// RenderResult is the final output of one render pass.
type RenderResult struct {
	// Messages in declaration order. Priority decides who survives pruning;
	// declaration order decides where survivors appear.
	Messages []Message `json:"messages"`

	// TokenCount is the summed cost of everything retained. It never exceeds
	// the budget the render was given.
	TokenCount int `json:"token_count"`

	// References aggregates the opaque References of every surviving element,
	// in declaration order.
	References []any `json:"-"`
}
