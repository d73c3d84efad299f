package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mentor-go/internal/config"
	"mentor-go/pkg/log"
)

// openAIClient calls an OpenAI-compatible /embeddings endpoint.
type openAIClient struct {
	cfg        config.OpenAIConfig
	dimensions int
	client     *http.Client
}

// NewOpenAIClient creates an embedding client for an OpenAI-compatible API.
func NewOpenAIClient(cfg config.OpenAIConfig, dimensions int) Client {
	return &openAIClient{
		cfg:        cfg,
		dimensions: dimensions,
		client:     &http.Client{},
	}
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// CreateEmbedding calls the OpenAI-compatible API to get the vector for a given text.
func (c *openAIClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Debugf("[EmbeddingClient] 调用 OpenAI Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))
	reqBody := embeddingRequest{
		Model:      c.cfg.Model,
		Input:      []string{text},
		Dimensions: c.dimensions,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding api returned non-200 status: %s", resp.Status)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(embeddingResp.Data) == 0 || len(embeddingResp.Data[0].Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, ErrEmptyEmbedding
	}

	return embeddingResp.Data[0].Embedding, nil
}

// Probe performs one cheap embedding call to verify connectivity.
func (c *openAIClient) Probe(ctx context.Context) error {
	_, err := c.CreateEmbedding(ctx, "test")
	return err
}

// ModelName returns the configured model identifier.
func (c *openAIClient) ModelName() string {
	return c.cfg.Model
}
