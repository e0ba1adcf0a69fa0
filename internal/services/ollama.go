package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Batatao343/rpg-ia-master/pkg/chat"
)

// OllamaService implements LLMService against a local Ollama server.
// Used for development without API keys.
type OllamaService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type ollamaFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFunction `json:"function"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func NewOllamaService(baseURL, modelName string, logger *slog.Logger) *OllamaService {
	return &OllamaService{
		baseURL:   baseURL,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: logger,
	}
}

func toOllamaMessages(system string, messages []chat.Message) []ollamaMessage {
	out := make([]ollamaMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, ollamaMessage{Role: "system", Content: system})
	}
	for _, msg := range messages {
		om := ollamaMessage{Role: msg.Role, Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			om.ToolCalls = append(om.ToolCalls, ollamaToolCall{
				Function: ollamaFunction{Name: tc.Name, Arguments: tc.Args},
			})
		}
		out = append(out, om)
	}
	return out
}

func (o *OllamaService) chatCompletion(ctx context.Context, req ollamaChatRequest) (*ollamaChatResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/chat", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
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

	var apiResp ollamaChatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &apiResp, nil
}

func (o *OllamaService) Chat(ctx context.Context, system string, messages []chat.Message) (string, error) {
	resp, err := o.chatCompletion(ctx, ollamaChatRequest{
		Model:    o.modelName,
		Messages: toOllamaMessages(system, messages),
	})
	if err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "(no response)", nil
	}
	return resp.Message.Content, nil
}

func (o *OllamaService) ChatWithTools(ctx context.Context, system string, messages []chat.Message, tools []ToolDefinition) (chat.Message, error) {
	req := ollamaChatRequest{
		Model:    o.modelName,
		Messages: toOllamaMessages(system, messages),
	}
	for _, t := range tools {
		var ot ollamaTool
		ot.Type = "function"
		ot.Function.Name = t.Name
		ot.Function.Description = t.Description
		ot.Function.Parameters = t.Schema
		req.Tools = append(req.Tools, ot)
	}

	resp, err := o.chatCompletion(ctx, req)
	if err != nil {
		return chat.Message{}, err
	}

	msg := chat.Message{Role: chat.RoleAssistant, Content: resp.Message.Content}
	// Ollama does not assign call IDs; synthesize stable ones so the
	// dispatcher can pair results with calls.
	for i, tc := range resp.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, chat.ToolCall{
			ID:   fmt.Sprintf("call-%d", i+1),
			Name: tc.Function.Name,
			Args: tc.Function.Arguments,
		})
	}
	return msg, nil
}

func (o *OllamaService) GenerateJSON(ctx context.Context, system string, messages []chat.Message, out any) error {
	resp, err := o.chatCompletion(ctx, ollamaChatRequest{
		Model:    o.modelName,
		Messages: toOllamaMessages(system, messages),
		Format:   "json",
	})
	if err != nil {
		return err
	}
	return decodeJSONResponse(resp.Message.Content, out)
}
