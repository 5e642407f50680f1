// Package assistant is a client for an OpenAI-compatible chat-completions
// endpoint, with a lightweight JSON function-calling convention: the model
// may answer with {"tool": "...", ...} to request a tool run, and gets the
// tool result fed back for a final answer.
package assistant

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

	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

const systemPrompt = "You are a helpful assistant for a flash flood prediction application. " +
	"The app helps users check flood probability at USGS monitoring sites based on streamflow data. " +
	"Answer questions about floods, safety, and how to interpret risk levels " +
	"(Low < 30%, Moderate < 70%, High >= 70%). Keep answers concise and helpful.\n\n" +
	"You can call tools by replying with ONLY a JSON object, no other text:\n" +
	`  {"tool": "get_flood_probability", "site_code": "<USGS site code>"}` + "\n" +
	`  {"tool": "get_active_alerts", "state": "<two-letter state code>"}` + "\n" +
	`  {"tool": "get_safety_tips"}` + "\n" +
	"The tool result will be provided and you should then answer the user in plain language."

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolFunc executes a named tool. args holds the remaining fields of the
// model's tool-invocation object ("site_code", "state", ...).
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Client talks to a chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
	tools      map[string]ToolFunc
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an assistant client. tools may be nil for a
// plain-chat assistant.
func NewClient(baseURL, apiKey, model string, maxTokens int, timeout time.Duration, tools map[string]ToolFunc, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tools:   tools,
		logger:  logger,
		metrics: metrics,
	}
}

// Respond generates a reply to userInput given prior history. A reply
// that is a well-formed tool invocation triggers one tool round before
// the final answer; anything else comes back verbatim.
func (c *Client) Respond(ctx context.Context, userInput string, history []Message) (string, error) {
	c.metrics.ChatRequests.Inc()

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userInput})

	reply, err := c.complete(ctx, messages)
	if err != nil {
		return "", err
	}

	name, args, ok := parseToolCall(reply)
	if !ok {
		return reply, nil
	}

	tool, found := c.tools[name]
	if !found {
		// The model invented a tool; surface its text rather than failing.
		c.metrics.ToolCalls.WithLabelValues(name, "unknown").Inc()
		c.logger.Warn("unknown tool requested", "tool", name)
		return reply, nil
	}

	result, err := tool(ctx, args)
	if err != nil {
		c.metrics.ToolCalls.WithLabelValues(name, "error").Inc()
		return "", fmt.Errorf("tool %s: %w", name, err)
	}
	c.metrics.ToolCalls.WithLabelValues(name, "success").Inc()

	messages = append(messages,
		Message{Role: "assistant", Content: reply},
		Message{Role: "system", Content: "Tool " + name + " returned: " + result},
	)
	return c.complete(ctx, messages)
}

// parseToolCall recognizes a reply that is exactly a JSON object with a
// string "tool" field. Everything else, including malformed JSON, is a
// plain answer.
func parseToolCall(reply string) (string, map[string]any, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return "", nil, false
	}

	var call map[string]any
	if err := json.Unmarshal([]byte(trimmed), &call); err != nil {
		return "", nil, false
	}
	name, ok := call["tool"].(string)
	if !ok || name == "" {
		return "", nil, false
	}
	delete(call, "tool")
	return name, call, true
}

func (c *Client) complete(ctx context.Context, messages []Message) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("assistant", "error").Inc()
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.UpstreamAPIDuration.WithLabelValues("assistant").Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues("assistant", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat API error: status %d: %s", resp.StatusCode, body)
	}

	var completion completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues("assistant", "error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}
	c.metrics.UpstreamRequests.WithLabelValues("assistant", "success").Inc()

	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// Chat-completions wire types.

type completionRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type completionResponse struct {
	Choices []choice `json:"choices"`
}

type choice struct {
	Message Message `json:"message"`
}
