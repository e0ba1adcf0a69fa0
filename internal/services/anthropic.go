package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicService implements LLMService for Anthropic Claude.
// Narrative calls use modelName; structured backend calls (router,
// designers) use backendModelName when set.
type AnthropicService struct {
	apiKey           string
	modelName        string
	backendModelName string
	httpClient       *http.Client
	logger           *slog.Logger
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicChatRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey, modelName, backendModelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:           apiKey,
		modelName:        modelName,
		backendModelName: backendModelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// toAnthropicMessages converts internal messages to the Anthropic wire
// format. System messages are folded into the returned system prompt;
// tool results become user-role tool_result blocks.
func toAnthropicMessages(system string, messages []chat.Message) (string, []anthropicMessage) {
	systemParts := []string{}
	if system != "" {
		systemParts = append(systemParts, system)
	}

	var out []anthropicMessage
	for _, msg := range messages {
		switch msg.Role {
		case chat.RoleSystem:
			systemParts = append(systemParts, msg.Content)

		case chat.RoleAssistant:
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Args
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: blocks})

		case chat.RoleTool:
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicContentBlock{{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
			}}})

		default:
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicContentBlock{{
				Type: "text",
				Text: msg.Content,
			}}})
		}
	}
	return strings.Join(systemParts, "\n\n"), out
}

func (a *AnthropicService) chatCompletion(ctx context.Context, model, system string, messages []chat.Message, tools []ToolDefinition) (*anthropicChatResponse, error) {
	systemPrompt, wireMessages := toAnthropicMessages(system, messages)

	temperature := DefaultAnthropicTemperature
	req := anthropicChatRequest{
		Model:       model,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		System:      systemPrompt,
		Messages:    wireMessages,
	}
	for _, t := range tools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Schema,
		})
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp anthropicChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", apiResp.Error.Message)
	}
	return &apiResp, nil
}

// toMessage folds the response content blocks into one assistant message.
func (r *anthropicChatResponse) toMessage() chat.Message {
	msg := chat.Message{Role: chat.RoleAssistant}
	for _, block := range r.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			msg.ToolCalls = append(msg.ToolCalls, chat.ToolCall{
				ID:   block.ID,
				Name: block.Name,
				Args: block.Input,
			})
		}
	}
	return msg
}

func (a *AnthropicService) Chat(ctx context.Context, system string, messages []chat.Message) (string, error) {
	resp, err := a.chatCompletion(ctx, a.modelName, system, messages, nil)
	if err != nil {
		return "", err
	}
	msg := resp.toMessage()
	if msg.Content == "" {
		msg.Content = "(no response)"
	}
	return msg.Content, nil
}

func (a *AnthropicService) ChatWithTools(ctx context.Context, system string, messages []chat.Message, tools []ToolDefinition) (chat.Message, error) {
	resp, err := a.chatCompletion(ctx, a.modelName, system, messages, tools)
	if err != nil {
		return chat.Message{}, err
	}
	return resp.toMessage(), nil
}

func (a *AnthropicService) GenerateJSON(ctx context.Context, system string, messages []chat.Message, out any) error {
	model := a.modelName
	if a.backendModelName != "" {
		model = a.backendModelName
	}
	resp, err := a.chatCompletion(ctx, model, system, messages, nil)
	if err != nil {
		return err
	}
	return decodeJSONResponse(resp.toMessage().Content, out)
}
