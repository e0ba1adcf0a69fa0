package services

import (
	"context"
	"sync"

	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// MockLLM is a scriptable implementation of LLMService for testing.
// Set the *Func hooks for custom behavior, or leave them nil for the
// defaults. All calls are recorded.
type MockLLM struct {
	ChatFunc          func(ctx context.Context, system string, messages []chat.Message) (string, error)
	ChatWithToolsFunc func(ctx context.Context, system string, messages []chat.Message, tools []ToolDefinition) (chat.Message, error)
	GenerateJSONFunc  func(ctx context.Context, system string, messages []chat.Message, out any) error

	ChatCalls          []ChatCall
	ChatWithToolsCalls []ChatCall
	GenerateJSONCalls  []ChatCall

	mu sync.Mutex
}

// ChatCall records the arguments of one LLM invocation.
type ChatCall struct {
	System   string
	Messages []chat.Message
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) Chat(ctx context.Context, system string, messages []chat.Message) (string, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{System: system, Messages: messages})
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, system, messages)
	}
	return "mock narrative", nil
}

func (m *MockLLM) ChatWithTools(ctx context.Context, system string, messages []chat.Message, tools []ToolDefinition) (chat.Message, error) {
	m.mu.Lock()
	m.ChatWithToolsCalls = append(m.ChatWithToolsCalls, ChatCall{System: system, Messages: messages})
	m.mu.Unlock()

	if m.ChatWithToolsFunc != nil {
		return m.ChatWithToolsFunc(ctx, system, messages, tools)
	}
	return chat.Assistant("mock narrative"), nil
}

func (m *MockLLM) GenerateJSON(ctx context.Context, system string, messages []chat.Message, out any) error {
	m.mu.Lock()
	m.GenerateJSONCalls = append(m.GenerateJSONCalls, ChatCall{System: system, Messages: messages})
	m.mu.Unlock()

	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, system, messages, out)
	}
	return nil
}
