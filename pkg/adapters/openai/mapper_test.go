package openai_test

import (
	"testing"

	backend "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/openai"
	"github.com/aretw0/espalier/pkg/domain"
)

func TestMessages_MapsRolesAndNames(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleSystem, Content: "You are a helpful assistant."},
		{Role: domain.RoleUser, Content: "Hello!", Name: "ada"},
		{Role: domain.RoleAssistant, Content: "Hi there."},
	}

	converted, err := openai.Messages(msgs)
	require.NoError(t, err)

	assert.Equal(t, []backend.ChatCompletionMessage{
		{Role: backend.ChatMessageRoleSystem, Content: "You are a helpful assistant."},
		{Role: backend.ChatMessageRoleUser, Content: "Hello!", Name: "ada"},
		{Role: backend.ChatMessageRoleAssistant, Content: "Hi there."},
	}, converted)
}

func TestMessages_UnknownRoleFails(t *testing.T) {
	_, err := openai.Messages([]domain.Message{
		{Role: domain.Role("tool"), Content: "output"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 0")
	assert.Contains(t, err.Error(), "tool")
}

func TestRequest(t *testing.T) {
	req, err := openai.Request("gpt-4o", 512, []domain.Message{
		{Role: domain.RoleUser, Content: "ping"},
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, backend.ChatMessageRoleUser, req.Messages[0].Role)
	assert.Equal(t, "ping", req.Messages[0].Content)
}
