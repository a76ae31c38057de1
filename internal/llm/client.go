package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ovukovic/coachhub/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-sonnet-4-20250514"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

var ErrNoCompletion = errors.New("no completion in model response")

// Client talks to the Anthropic Messages API. Plan generation and
// exercise tagging go through it; both degrade gracefully when the
// API is unreachable, so callers treat errors as soft failures.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, model, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Enabled reports whether an API key was configured. With no key the
// callers fall back to their deterministic behavior.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Tool is a tool definition passed to the model, with a JSON schema
// describing the expected input.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type CompletionRequest struct {
	System    string
	Messages  []Message
	MaxTokens int
	// when Tool is set the model is forced to use it, and the
	// completion is the tool input JSON
	Tool *Tool
}

type messagesAPIRequest struct {
	Model      string    `json:"model"`
	MaxTokens  int       `json:"max_tokens"`
	System     string    `json:"system,omitempty"`
	Messages   []Message `json:"messages"`
	Tools      []Tool    `json:"tools,omitempty"`
	ToolChoice any       `json:"tool_choice,omitempty"`
}

type messagesAPIResponse struct {
	Content []struct {
		Type  string          `json:"type"`
		Text  string          `json:"text"`
		Name  string          `json:"name"`
		Input json.RawMessage `json:"input"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a messages request and returns the completion text,
// or the tool input JSON when a tool was requested.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "llm.complete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("llm.model", c.model))

	if !c.Enabled() {
		return "", errors.New("llm client disabled, no api key set")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := messagesAPIRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages:  req.Messages,
	}
	if req.Tool != nil {
		apiReq.Tools = []Tool{*req.Tool}
		apiReq.ToolChoice = map[string]any{
			"type": "tool",
			"name": req.Tool.Name,
		}
	}

	reqBytes, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(reqBytes),
	)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("messages request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Errorf("llm complete: close response body: %s", closeErr)
		}
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var apiResp messagesAPIResponse
	if err := json.Unmarshal(respBytes, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if apiResp.Error != nil {
			return "", fmt.Errorf("messages api [%d]: %s: %s", resp.StatusCode, apiResp.Error.Type, apiResp.Error.Message)
		}
		return "", fmt.Errorf("messages api: unexpected status %d", resp.StatusCode)
	}

	for _, content := range apiResp.Content {
		if req.Tool != nil {
			if content.Type == "tool_use" && content.Name == req.Tool.Name {
				return string(content.Input), nil
			}
			continue
		}
		if content.Type == "text" && content.Text != "" {
			return content.Text, nil
		}
	}

	return "", ErrNoCompletion
}

const exerciseTagsSystemPrompt = `You are a fitness expert. Generate short lowercase tags for exercises,
covering muscle groups, movement patterns and training qualities. Respond with tags only.`

var exerciseTagsTool = Tool{
	Name:        "set_exercise_tags",
	Description: "Set the generated tags for an exercise",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []string{"tags"},
	},
}

// GenerateExerciseTags asks the model for descriptive tags of an
// exercise. A nil error with empty tags never happens, but callers
// are expected to tolerate an error by storing no tags.
func (c *Client) GenerateExerciseTags(ctx context.Context, name, description, category string) (_ []string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "llm.generateexercisetags")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	prompt := fmt.Sprintf("Exercise: %s\nCategory: %s", name, category)
	if description != "" {
		prompt += fmt.Sprintf("\nDescription: %s", description)
	}

	completion, err := c.Complete(ctx, CompletionRequest{
		System:    exerciseTagsSystemPrompt,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: 512,
		Tool:      &exerciseTagsTool,
	})
	if err != nil {
		return nil, err
	}

	var toolInput struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(completion), &toolInput); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}

	span.SetAttributes(attribute.Int("llm.tags.count", len(toolInput.Tags)))

	return toolInput.Tags, nil
}
