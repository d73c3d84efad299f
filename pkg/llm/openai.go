package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mentor-go/internal/config"
)

// openAIClient calls an OpenAI-compatible chat completions endpoint.
type openAIClient struct {
	cfg    config.OpenAIConfig
	gen    GenerationParams
	client *http.Client
}

// NewOpenAIClient creates an LLM client for an OpenAI-compatible API.
func NewOpenAIClient(cfg config.OpenAIConfig, gen GenerationParams) Client {
	return &openAIClient{
		cfg:    cfg,
		gen:    gen,
		client: &http.Client{},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate calls the chat completions API with a single user message.
func (c *openAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
	if c.gen.Temperature != 0 {
		t := c.gen.Temperature
		reqBody.Temperature = &t
	}
	if c.gen.MaxTokens != 0 {
		m := c.gen.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat api returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// Probe sends a minimal smoke-test completion.
func (c *openAIClient) Probe(ctx context.Context) error {
	_, err := c.Generate(ctx, "Say 'OK'")
	return err
}

// Info reports the active model.
func (c *openAIClient) Info() ModelInfo {
	return ModelInfo{
		Name:     fmt.Sprintf("OpenAI (%s)", c.cfg.Model),
		IsOpenAI: true,
	}
}
