// Package local 实现了目录持久化的本地向量索引，使用暴力余弦相似度检索。
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mentor-go/internal/model"
	"mentor-go/internal/vectorstore"
	"mentor-go/pkg/log"
)

const indexFileName = "index.json"

// Store 将索引整体序列化为目录下的一个 JSON 文件。
// 文件的存在与否即"是否已有持久化索引"的信号。
type Store struct {
	mu  sync.RWMutex
	dir string

	loaded    bool
	model     string
	dimension int
	items     []indexItem
}

type indexItem struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Vector   []float32         `json:"vector"`
}

type indexFile struct {
	Model     string      `json:"model"`
	Dimension int         `json:"dimension"`
	Items     []indexItem `json:"items"`
}

var _ vectorstore.Store = (*Store)(nil)

// New 创建一个以 dir 为持久化目录的本地索引。
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

// Create 重建并持久化索引。
func (s *Store) Create(ctx context.Context, docs []model.Document, vectors [][]float32, embeddingModel string) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("分块数 (%d) 与向量数 (%d) 不一致", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]indexItem, 0, len(docs))
	dimension := 0
	for i, d := range docs {
		if dimension == 0 {
			dimension = len(vectors[i])
		} else if len(vectors[i]) != dimension {
			return fmt.Errorf("向量维度不一致: %d != %d", len(vectors[i]), dimension)
		}
		items = append(items, indexItem{Content: d.Content, Metadata: d.Metadata, Vector: vectors[i]})
	}

	s.model = embeddingModel
	s.dimension = dimension
	s.items = items
	s.loaded = true

	if err := s.persistLocked(); err != nil {
		s.loaded = false
		return err
	}
	log.Infof("[LocalStore] 索引已创建并持久化到 %s, 分块数: %d, 维度: %d", s.indexPath(), len(items), dimension)
	return nil
}

// Load 读取持久化索引并校验 embedding 模型标识。
func (s *Store) Load(ctx context.Context, embeddingModel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return vectorstore.ErrNotExists
		}
		return fmt.Errorf("读取索引文件失败: %w", err)
	}

	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("解析索引文件失败: %w", err)
	}

	if file.Model != embeddingModel {
		return fmt.Errorf("%w: 索引为 %q, 当前为 %q",
			vectorstore.ErrModelMismatch, file.Model, embeddingModel)
	}

	s.model = file.Model
	s.dimension = file.Dimension
	s.items = file.Items
	s.loaded = true
	log.Infof("[LocalStore] 已加载索引 %s, 分块数: %d", s.indexPath(), len(file.Items))
	return nil
}

// Add 追加分块并重新持久化。
func (s *Store) Add(ctx context.Context, docs []model.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("分块数 (%d) 与向量数 (%d) 不一致", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return vectorstore.ErrNotLoaded
	}
	for i, d := range docs {
		if s.dimension > 0 && len(vectors[i]) != s.dimension {
			return fmt.Errorf("向量维度不一致: %d != %d", len(vectors[i]), s.dimension)
		}
		s.items = append(s.items, indexItem{Content: d.Content, Metadata: d.Metadata, Vector: vectors[i]})
	}
	return s.persistLocked()
}

// Search 暴力计算余弦相似度并返回前 k 个结果。
// 相同得分按插入顺序排列（稳定排序）。
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return nil, vectorstore.ErrNotLoaded
	}
	if k <= 0 {
		k = 4
	}

	results := make([]model.SearchResult, 0, len(s.items))
	for _, item := range s.items {
		results = append(results, model.SearchResult{
			Document: model.Document{Content: item.Content, Metadata: item.Metadata},
			Score:    cosine(vector, item.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Exists 通过索引文件是否存在判断。
func (s *Store) Exists(ctx context.Context) bool {
	_, err := os.Stat(s.indexPath())
	return err == nil
}

// Count 返回索引中的分块数。
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return 0, vectorstore.ErrNotLoaded
	}
	return len(s.items), nil
}

func (s *Store) persistLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("创建索引目录失败: %w", err)
	}
	data, err := json.Marshal(indexFile{Model: s.model, Dimension: s.dimension, Items: s.items})
	if err != nil {
		return fmt.Errorf("序列化索引失败: %w", err)
	}
	if err := os.WriteFile(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("写入索引文件失败: %w", err)
	}
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
