package chat

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"      // the player
	RoleAssistant = "assistant" // narrator / specialist agent
	RoleSystem    = "system"    // engine instructions and markers
	RoleTool      = "tool"      // result of a dispatched tool call
)

// ToolCall is a single tool invocation requested by the model.
// Args is kept raw so the dispatcher can validate it against the
// strict per-tool schema instead of trusting loose maps.
type ToolCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Message is one entry in a session's conversation history.
// The role set follows the wire format of tool-calling chat APIs:
// an assistant message may carry tool calls, and a tool message
// answers exactly one of them via ToolCallID.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// HasToolCalls reports whether this is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsNarrative reports whether this message is plain assistant text,
// i.e. the kind of message a completed turn must end with.
func (m Message) IsNarrative() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) == 0 && m.Content != ""
}

func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// ToolResult builds the tool message answering the given call.
func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// TurnRequest is a player action submitted to the turn endpoint.
type TurnRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

func (tr *TurnRequest) Validate() error {
	if tr.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if tr.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// TurnResponse carries the narrative outcome of one resolved turn.
type TurnResponse struct {
	SessionID uuid.UUID `json:"session_id,omitempty"`
	Message   string    `json:"message,omitempty"`
	Route     string    `json:"route,omitempty"`
	Error     string    `json:"error,omitempty"`
}
