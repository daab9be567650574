// Package openai maps rendered prompts to go-openai request shapes. The
// mapping is purely structural: budget fitting already happened during the
// render, and nothing here talks to the network.
package openai

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
	openai "github.com/sashabaranov/go-openai"
)

// Messages converts a rendered prompt to chat completion messages. OpenAI
// keeps system messages inline, so the conversion is positional and
// lossless; speaker names map to the native name field.
func Messages(msgs []domain.Message) ([]openai.ChatCompletionMessage, error) {
	converted := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for i, msg := range msgs {
		role, err := roleFor(msg.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
			Name:    msg.Name,
		})
	}
	return converted, nil
}

// Request builds a chat completion request around the converted messages.
// MaxTokens caps the completion; the prompt itself was fitted at render
// time.
func Request(model string, maxTokens int, msgs []domain.Message) (openai.ChatCompletionRequest, error) {
	converted, err := Messages(msgs)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}
	return openai.ChatCompletionRequest{
		Model:     model,
		Messages:  converted,
		MaxTokens: maxTokens,
	}, nil
}

func roleFor(role domain.Role) (string, error) {
	switch role {
	case domain.RoleSystem:
		return openai.ChatMessageRoleSystem, nil
	case domain.RoleUser:
		return openai.ChatMessageRoleUser, nil
	case domain.RoleAssistant:
		return openai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}
