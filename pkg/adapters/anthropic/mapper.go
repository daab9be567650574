// Package anthropic maps rendered prompts to go-anthropic request shapes.
// The Anthropic API takes the system prompt outside the message list, so
// leading system messages are hoisted into the request's System field.
package anthropic

import (
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/aretw0/espalier/pkg/domain"
)

// DefaultMaxTokens caps the completion when the caller does not supply a
// limit. The messages API rejects requests without one.
const DefaultMaxTokens = 4096

// Request converts a rendered prompt to an Anthropic messages request.
// System messages must lead the prompt; one that appears after the first
// conversational turn has no representation in this API and fails the
// conversion. Speaker names have no native field either and are folded
// into the text as a "name: " prefix.
func Request(model string, maxTokens int, msgs []domain.Message) (anthropic.MessagesRequest, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	var system []string
	converted := make([]anthropic.Message, 0, len(msgs))
	for i, msg := range msgs {
		content := msg.Content
		if msg.Name != "" {
			content = msg.Name + ": " + content
		}
		switch msg.Role {
		case domain.RoleSystem:
			if len(converted) > 0 {
				return anthropic.MessagesRequest{}, fmt.Errorf("message %d: system messages must lead the prompt for this target", i)
			}
			system = append(system, content)
		case domain.RoleUser:
			converted = append(converted, anthropic.NewUserTextMessage(content))
		case domain.RoleAssistant:
			converted = append(converted, anthropic.NewAssistantTextMessage(content))
		default:
			return anthropic.MessagesRequest{}, fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
	}
	return anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		System:    strings.Join(system, "\n\n"),
		Messages:  converted,
		MaxTokens: maxTokens,
	}, nil
}
