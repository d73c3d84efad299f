package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mentor-go/internal/config"
)

// ollamaClient calls a local Ollama server's /api/generate endpoint.
type ollamaClient struct {
	cfg    config.OllamaConfig
	gen    GenerationParams
	client *http.Client
}

// NewOllamaClient creates an LLM client backed by a local Ollama server.
func NewOllamaClient(cfg config.OllamaConfig, gen GenerationParams) Client {
	return &ollamaClient{
		cfg: cfg,
		gen: gen,
		// 本地模型的生成可能较慢，超时放宽到 5 分钟
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate calls POST /api/generate with stream disabled and returns the full completion.
func (c *ollamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  c.cfg.Model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.gen.Temperature,
			NumPredict:  c.gen.MaxTokens,
		},
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/generate", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama generate api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama generate api returned non-200 status: %s, body: %s", resp.Status, string(body))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode ollama generate response: %w", err)
	}
	return out.Response, nil
}

// Probe sends a minimal smoke-test completion to verify the server is reachable.
func (c *ollamaClient) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	_, err := c.Generate(probeCtx, "Say 'OK'")
	return err
}

// Info reports the active model.
func (c *ollamaClient) Info() ModelInfo {
	return ModelInfo{
		Name:     fmt.Sprintf("Ollama (%s)", c.cfg.Model),
		IsOllama: true,
	}
}
