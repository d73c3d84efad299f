// Package service 实现核心业务逻辑：索引管理、检索问答与服务门面。
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mentor-go/internal/model"
	"mentor-go/internal/vectorstore"
	"mentor-go/pkg/embedding"
	"mentor-go/pkg/log"
)

// ErrNoDocuments 表示试图用空文档集建立索引。
var ErrNoDocuments = errors.New("没有可以索引的文档")

// ErrIndexNotReady 表示索引尚未建立或加载。
var ErrIndexNotReady = errors.New("索引尚未就绪")

// IndexService 负责把文档转换为向量并维护向量索引。
type IndexService interface {
	// CreateIndex 对文档集做 embedding 并重建索引，docs 为空时返回 ErrNoDocuments。
	CreateIndex(ctx context.Context, docs []model.Document) error
	// LoadIndex 加载已持久化的索引，并校验其 embedding 模型与当前配置一致。
	LoadIndex(ctx context.Context) error
	// AddDocuments 向已就绪的索引增量添加文档。
	AddDocuments(ctx context.Context, docs []model.Document) error
	// Search 对查询文本做 embedding 并返回最相似的 k 个文档块。
	Search(ctx context.Context, query string, k int) ([]model.SearchResult, error)
	// Ready 报告索引是否可用于检索。
	Ready() bool
	// Exists 报告持久化的索引是否存在。
	Exists(ctx context.Context) bool
	// EmbeddingModel 返回当前 embedding 模型标识。
	EmbeddingModel() string
}

type indexService struct {
	embedder embedding.Client
	store    vectorstore.Store

	mu    sync.RWMutex
	ready bool
}

// NewIndexService 组装 embedding 客户端与向量存储。
func NewIndexService(embedder embedding.Client, store vectorstore.Store) IndexService {
	return &indexService{embedder: embedder, store: store}
}

func (s *indexService) embedDocuments(ctx context.Context, docs []model.Document) ([][]float32, error) {
	vectors := make([][]float32, 0, len(docs))
	for i, doc := range docs {
		vec, err := s.embedder.CreateEmbedding(ctx, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个文档块 embedding 失败: %w", i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

func (s *indexService) CreateIndex(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return ErrNoDocuments
	}

	log.Infof("[IndexService] 开始建立索引, 文档块数: %d, model: %s", len(docs), s.embedder.ModelName())
	vectors, err := s.embedDocuments(ctx, docs)
	if err != nil {
		s.setReady(false)
		return err
	}

	if err := s.store.Create(ctx, docs, vectors, s.embedder.ModelName()); err != nil {
		s.setReady(false)
		return fmt.Errorf("建立向量索引失败: %w", err)
	}
	s.setReady(true)
	log.Infof("[IndexService] 索引建立完成, 文档块数: %d", len(docs))
	return nil
}

func (s *indexService) LoadIndex(ctx context.Context) error {
	if err := s.store.Load(ctx, s.embedder.ModelName()); err != nil {
		s.setReady(false)
		return err
	}
	s.setReady(true)

	if count, err := s.store.Count(ctx); err == nil {
		log.Infof("[IndexService] 索引加载完成, 文档块数: %d", count)
	}
	return nil
}

func (s *indexService) AddDocuments(ctx context.Context, docs []model.Document) error {
	if !s.Ready() {
		return ErrIndexNotReady
	}
	if len(docs) == 0 {
		return nil
	}

	vectors, err := s.embedDocuments(ctx, docs)
	if err != nil {
		return err
	}
	if err := s.store.Add(ctx, docs, vectors); err != nil {
		return fmt.Errorf("向索引添加文档失败: %w", err)
	}
	log.Infof("[IndexService] 已向索引添加 %d 个文档块", len(docs))
	return nil
}

func (s *indexService) Search(ctx context.Context, query string, k int) ([]model.SearchResult, error) {
	if !s.Ready() {
		return nil, ErrIndexNotReady
	}

	vec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询 embedding 失败: %w", err)
	}
	return s.store.Search(ctx, vec, k)
}

func (s *indexService) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *indexService) Exists(ctx context.Context) bool {
	return s.store.Exists(ctx)
}

func (s *indexService) EmbeddingModel() string {
	return s.embedder.ModelName()
}

func (s *indexService) setReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}
