// Package es 实现了基于 Elasticsearch dense_vector 的向量索引。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"mentor-go/internal/config"
	"mentor-go/internal/model"
	"mentor-go/internal/vectorstore"
	"mentor-go/pkg/log"
)

// Store 将分块与向量写入一个 dense_vector 索引，使用 kNN 余弦检索。
// embedding 模型标识记录在索引 mapping 的 _meta 中，Load 时校验。
type Store struct {
	client    *elasticsearch.Client
	indexName string
	loaded    bool
}

type esChunk struct {
	VectorID     string    `json:"vector_id"`
	Source       string    `json:"source"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

var _ vectorstore.Store = (*Store)(nil)

// New 初始化 Elasticsearch 客户端。
func New(cfg config.ESStoreConfig) (*Store, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(cfg.Addresses, ","),
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 Elasticsearch 客户端失败: %w", err)
	}
	return &Store{client: client, indexName: cfg.IndexName}, nil
}

// Create 删除既有索引后按向量维度重建 mapping 并写入全部分块。
func (s *Store) Create(ctx context.Context, docs []model.Document, vectors [][]float32, embeddingModel string) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("分块数 (%d) 与向量数 (%d) 不一致", len(docs), len(vectors))
	}
	if len(vectors) == 0 {
		return errors.New("无法从空向量集合推断索引维度")
	}

	// 替换语义：既有索引直接删除重建
	res, err := s.client.Indices.Delete([]string{s.indexName},
		s.client.Indices.Delete.WithContext(ctx),
		s.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("删除既有索引失败: %w", err)
	}
	res.Body.Close()

	dims := len(vectors[0])
	mapping := fmt.Sprintf(`{
		"mappings": {
			"_meta": { "model_version": %q },
			"properties": {
				"vector_id": { "type": "keyword" },
				"source": { "type": "keyword" },
				"text_content": { "type": "text" },
				"vector": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				},
				"model_version": { "type": "keyword" }
			}
		}
	}`, embeddingModel, dims)

	res, err = s.client.Indices.Create(
		s.indexName,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", s.indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", s.indexName, res.String())
	}
	log.Infof("[ESStore] 索引 '%s' 创建成功, 维度: %d, 模型: %s", s.indexName, dims, embeddingModel)

	s.loaded = true
	if err := s.indexChunks(ctx, docs, vectors, embeddingModel); err != nil {
		s.loaded = false
		return err
	}
	return nil
}

// Load 检查索引存在性并校验 mapping _meta 中的模型标识。
func (s *Store) Load(ctx context.Context, embeddingModel string) error {
	res, err := s.client.Indices.Exists([]string{s.indexName},
		s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引是否存在失败: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return vectorstore.ErrNotExists
	}
	if res.IsError() {
		return fmt.Errorf("检查索引时收到意外的状态码: %d", res.StatusCode)
	}

	stored, err := s.storedModelVersion(ctx)
	if err != nil {
		return err
	}
	if stored != "" && stored != embeddingModel {
		return fmt.Errorf("%w: 索引为 %q, 当前为 %q", vectorstore.ErrModelMismatch, stored, embeddingModel)
	}

	s.loaded = true
	log.Infof("[ESStore] 已加载索引 '%s', 模型: %s", s.indexName, stored)
	return nil
}

// Add 向已就绪的索引追加分块。
func (s *Store) Add(ctx context.Context, docs []model.Document, vectors [][]float32) error {
	if !s.loaded {
		return vectorstore.ErrNotLoaded
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("分块数 (%d) 与向量数 (%d) 不一致", len(docs), len(vectors))
	}
	stored, err := s.storedModelVersion(ctx)
	if err != nil {
		return err
	}
	return s.indexChunks(ctx, docs, vectors, stored)
}

// Search 使用 kNN 查询返回前 k 个相似分块。
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]model.SearchResult, error) {
	if !s.loaded {
		return nil, vectorstore.ErrNotLoaded
	}
	if k <= 0 {
		k = 4
	}

	query := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": k * 10,
		},
		"size": k,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("序列化检索查询失败: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.indexName),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch 检索失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch 检索返回错误: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source esChunk `json:"_source"`
				Score  float64 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	results := make([]model.SearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.SearchResult{
			Document: model.NewDocument(hit.Source.TextContent, hit.Source.Source),
			Score:    hit.Score,
		})
	}
	return results, nil
}

// Exists 报告索引是否已存在于集群中。
func (s *Store) Exists(ctx context.Context) bool {
	res, err := s.client.Indices.Exists([]string{s.indexName},
		s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return res.StatusCode == http.StatusOK
}

// Count 返回索引中的分块数。
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.loaded {
		return 0, vectorstore.ErrNotLoaded
	}
	res, err := s.client.Count(
		s.client.Count.WithContext(ctx),
		s.client.Count.WithIndex(s.indexName),
	)
	if err != nil {
		return 0, fmt.Errorf("统计索引文档数失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("统计索引文档数返回错误: %s", res.String())
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("解析计数响应失败: %w", err)
	}
	return out.Count, nil
}

// indexChunks 逐条写入分块，Refresh 置为 true 保证写后立即可查（对齐批量摄取后的首次检索）。
func (s *Store) indexChunks(ctx context.Context, docs []model.Document, vectors [][]float32, embeddingModel string) error {
	for i, d := range docs {
		chunk := esChunk{
			VectorID:     uuid.New().String(),
			Source:       d.Source(),
			TextContent:  d.Content,
			Vector:       vectors[i],
			ModelVersion: embeddingModel,
		}
		docBytes, err := json.Marshal(chunk)
		if err != nil {
			return fmt.Errorf("序列化分块失败: %w", err)
		}

		req := esapi.IndexRequest{
			Index:      s.indexName,
			DocumentID: chunk.VectorID,
			Body:       bytes.NewReader(docBytes),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return fmt.Errorf("索引分块失败: %w", err)
		}
		if res.IsError() {
			msg := res.String()
			res.Body.Close()
			return fmt.Errorf("索引分块时 Elasticsearch 返回错误: %s", msg)
		}
		res.Body.Close()
	}
	log.Infof("[ESStore] 已写入 %d 个分块到索引 '%s'", len(docs), s.indexName)
	return nil
}

// storedModelVersion 读取索引 mapping _meta 中记录的 embedding 模型标识。
func (s *Store) storedModelVersion(ctx context.Context) (string, error) {
	res, err := s.client.Indices.GetMapping(
		s.client.Indices.GetMapping.WithContext(ctx),
		s.client.Indices.GetMapping.WithIndex(s.indexName),
	)
	if err != nil {
		return "", fmt.Errorf("读取索引 mapping 失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return "", fmt.Errorf("读取索引 mapping 返回错误: %s", res.String())
	}

	var mappings map[string]struct {
		Mappings struct {
			Meta struct {
				ModelVersion string `json:"model_version"`
			} `json:"_meta"`
		} `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&mappings); err != nil {
		return "", fmt.Errorf("解析索引 mapping 失败: %w", err)
	}
	for _, m := range mappings {
		return m.Mappings.Meta.ModelVersion, nil
	}
	return "", nil
}
