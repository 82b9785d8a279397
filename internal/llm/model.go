// Package llm talks to chat-completion models that support function calling.
package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrMissingAPIKey = errors.New("model api key is required: set GOOGLE_API_KEY")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Tool describes a function the model may call. Parameters is a JSON schema
// object.
type Tool struct {
	Name        string
	Description string
	Parameters  json.RawMessage
}

// Model is a chat-completion backend. Chat returns the assistant reply, which
// either carries final content or one or more tool calls.
type Model interface {
	Chat(ctx context.Context, messages []Message, tools []Tool) (Message, error)
	Name() string
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Content: content}
}
