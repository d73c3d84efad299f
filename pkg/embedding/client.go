// Package embedding provides clients for interacting with embedding models.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding 表示服务端返回了空向量。
var ErrEmptyEmbedding = errors.New("received empty embedding from api")

// Client defines the interface for an embedding client.
type Client interface {
	// CreateEmbedding 将文本向量化。
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	// Probe 以一次低成本调用验证服务可达。
	Probe(ctx context.Context) error
	// ModelName 返回模型标识，用于索引元数据与加载校验。
	ModelName() string
}
