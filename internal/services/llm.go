package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// ToolDefinition describes one tool offered to the model. Schema is
// the JSON Schema of the tool's input object, passed through verbatim.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// LLMService is the provider-agnostic contract the engine and agents
// program against. Implementations wrap one chat-completion API.
type LLMService interface {
	// Chat sends the conversation and returns plain narrative text.
	Chat(ctx context.Context, system string, messages []chat.Message) (string, error)

	// ChatWithTools offers the given tools; the returned assistant
	// message may carry tool calls for the dispatcher to execute.
	ChatWithTools(ctx context.Context, system string, messages []chat.Message, tools []ToolDefinition) (chat.Message, error)

	// GenerateJSON requests a structured response and unmarshals it
	// into out. Used by the router and the content designers; uses
	// the cheaper backend model where the provider has one.
	GenerateJSON(ctx context.Context, system string, messages []chat.Message, out any) error
}

// structuredMaxAttempts bounds how often a structured call is retried
// before the caller falls back.
const structuredMaxAttempts = 2

// GenerateJSONWithRetry calls GenerateJSON up to structuredMaxAttempts
// times, so one malformed response does not cost the caller its
// generated content. The last error is returned when every attempt
// fails.
func GenerateJSONWithRetry(ctx context.Context, llm LLMService, logger *slog.Logger, system string, messages []chat.Message, out any) error {
	var err error
	for attempt := 1; attempt <= structuredMaxAttempts; attempt++ {
		err = llm.GenerateJSON(ctx, system, messages, out)
		if err == nil {
			return nil
		}
		if logger == nil {
			continue
		}
		if attempt < structuredMaxAttempts {
			logger.Warn("structured call failed, will retry", "error", err, "attempt", attempt)
		} else {
			logger.Error("structured call failed after retries", "error", err, "attempts", structuredMaxAttempts)
		}
	}
	return err
}

// extractJSON pulls the first JSON object out of a model response,
// tolerating markdown fences and surrounding prose.
func extractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)
	if after, ok := strings.CutPrefix(s, "```json"); ok {
		s = after
	} else if after, ok := strings.CutPrefix(s, "```"); ok {
		s = after
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return s[start : end+1], nil
}

// decodeJSONResponse applies extractJSON and unmarshals into out.
func decodeJSONResponse(content string, out any) error {
	raw, err := extractJSON(content)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse structured response: %w", err)
	}
	return nil
}
