package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"datalens/models"
)

// StructuredClient provides typed JSON responses from LLM calls.
type StructuredClient[T any] struct {
	APIKey        string
	BaseURL       string
	Model         string
	Temperature   float64
	MaxTokens     int
	Timeout       time.Duration
	SystemContext string

	httpClient *http.Client
}

// chatResponseFormat forces structured output from the provider.
type chatResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string             `json:"model"`
	Messages            []chatMessage      `json:"messages"`
	Temperature         float64            `json:"temperature,omitempty"`
	MaxCompletionTokens int                `json:"max_completion_tokens,omitempty"`
	ResponseFormat      chatResponseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// NewStructuredClient creates a structured client from AI configuration.
func NewStructuredClient[T any](config *models.AIConfig) *StructuredClient[T] {
	timeout := 120 * time.Second
	log.Printf("[StructuredClient] Initializing client with model=%s, temp=%.2f, maxTokens=%d, timeout=%v",
		config.OpenAIModel, config.Temperature, config.MaxTokens, timeout)

	return &StructuredClient[T]{
		APIKey:        config.OpenAIKey,
		BaseURL:       config.BaseURL,
		Model:         config.OpenAIModel,
		Temperature:   config.Temperature,
		MaxTokens:     config.MaxTokens,
		Timeout:       timeout,
		SystemContext: config.SystemContext,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// GetJSONResponse makes one typed LLM call and parses the reply into T.
// One request, one response, no streaming and no retry. Failures come
// back as *UpstreamError, *NoContentError or *ParseError.
func (client *StructuredClient[T]) GetJSONResponse(ctx context.Context, systemMessage, prompt string) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, client.Timeout)
	defer cancel()

	systemContent := systemMessage
	if systemContent == "" {
		systemContent = client.SystemContext
	}
	// OpenAI JSON mode requires "JSON" to appear in the conversation.
	if !strings.Contains(strings.ToLower(systemContent), "json") {
		systemContent += "\n\nIMPORTANT: Respond with valid JSON output."
	}

	reqBody := chatRequest{
		Model: client.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemContent},
			{Role: "user", Content: prompt},
		},
		Temperature:         client.Temperature,
		MaxCompletionTokens: client.MaxTokens,
		ResponseFormat:      chatResponseFormat{Type: "json_object"},
	}

	log.Printf("[StructuredClient] Sending request to %s - promptLength=%d, temp=%.2f",
		client.Model, len(prompt), client.Temperature)

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+client.APIKey)

	resp, err := client.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &UpstreamError{Message: fmt.Sprintf("request timeout after %v", client.Timeout), Err: err}
		}
		return nil, &UpstreamError{Message: "failed to reach provider", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: upstreamMessage(body)}
	}

	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Printf("[StructuredClient] ERROR: Failed to parse provider envelope: %v", err)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: "malformed provider response", Err: err}
	}

	if len(envelope.Choices) == 0 || strings.TrimSpace(envelope.Choices[0].Message.Content) == "" {
		log.Printf("[StructuredClient] ERROR: No content in provider response")
		return nil, &NoContentError{}
	}

	content := cleanJSONContent(envelope.Choices[0].Message.Content)

	// The contract is exact: unknown fields in the reply fail the parse.
	var result T
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&result); err != nil {
		log.Printf("[StructuredClient] ERROR: Reply failed JSON contract: %v", err)
		log.Printf("[StructuredClient] Offending content: %s", content)
		return nil, &ParseError{Err: err, Content: content}
	}

	log.Printf("[StructuredClient] Successfully parsed JSON response into result type")
	return &result, nil
}

// upstreamMessage extracts the provider's error message when the body is
// error-shaped, else returns the raw body.
func upstreamMessage(body []byte) string {
	var errBody struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error.Message != "" {
		return errBody.Error.Message
	}
	return string(body)
}

// cleanJSONContent strips markdown code fences some models wrap around
// otherwise valid JSON.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	return content
}
