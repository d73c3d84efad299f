package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mentor-go/internal/config"
	"mentor-go/pkg/log"
)

// ollamaClient calls a local Ollama server's native embeddings endpoint.
type ollamaClient struct {
	cfg    config.OllamaConfig
	client *http.Client
}

// NewOllamaClient creates an embedding client backed by a local Ollama server.
func NewOllamaClient(cfg config.OllamaConfig) Client {
	return &ollamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

type ollamaEmbeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// CreateEmbedding calls POST /api/embeddings on the Ollama server.
func (c *ollamaClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBytes, err := json.Marshal(ollamaEmbeddingRequest{Model: c.cfg.Model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embeddings api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings api returned non-200 status: %s", resp.Status)
	}

	var out ollamaEmbeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode ollama embedding response: %w", err)
	}
	if len(out.Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Ollama 返回了空的向量数据, model: %s", c.cfg.Model)
		return nil, ErrEmptyEmbedding
	}
	return out.Embedding, nil
}

// Probe performs one cheap embedding call to verify the server is reachable.
func (c *ollamaClient) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := c.CreateEmbedding(probeCtx, "test")
	return err
}

// ModelName returns the configured model identifier.
func (c *ollamaClient) ModelName() string {
	return c.cfg.Model
}
