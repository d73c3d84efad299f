// Package vectorstore 定义了向量索引的存储接口与通用错误。
package vectorstore

import (
	"context"
	"errors"

	"mentor-go/internal/model"
)

var (
	// ErrNotLoaded 表示索引尚未通过 Create 或 Load 就绪。
	ErrNotLoaded = errors.New("向量索引尚未加载")
	// ErrModelMismatch 表示持久化索引的 embedding 模型与当前配置不一致。
	ErrModelMismatch = errors.New("索引的 embedding 模型与当前配置不一致")
	// ErrNotExists 表示持久化位置上不存在索引。
	ErrNotExists = errors.New("持久化索引不存在")
)

// Store 是向量索引的统一接口。
// 一个索引实例中的全部向量必须出自同一个 embedding 模型，
// 模型标识在 Create 时持久化并在 Load 时校验。
type Store interface {
	// Create 以给定分块和向量重建索引（替换既有索引）并持久化。
	Create(ctx context.Context, docs []model.Document, vectors [][]float32, embeddingModel string) error
	// Load 打开持久化的索引；模型标识不匹配时返回 ErrModelMismatch。
	Load(ctx context.Context, embeddingModel string) error
	// Add 向已就绪的索引追加分块；未就绪时返回 ErrNotLoaded。
	Add(ctx context.Context, docs []model.Document, vectors [][]float32) error
	// Search 返回与查询向量最相似的 k 个分块，按相似度降序。
	Search(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error)
	// Exists 报告持久化位置上是否已有索引。
	Exists(ctx context.Context) bool
	// Count 返回索引中的分块数。
	Count(ctx context.Context) (int, error)
}
