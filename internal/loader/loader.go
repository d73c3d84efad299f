// Package loader 负责从对象存储拉取文档、抽取文本并切分为分块。
package loader

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mentor-go/internal/model"
	"mentor-go/pkg/log"
)

// ObjectStore 抽象了文档加载器需要的对象存储能力。
type ObjectStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// S3DocumentLoader 按 prefix 加载对象存储中的文档并切分。
type S3DocumentLoader struct {
	store    ObjectStore
	prefix   string
	splitter *Splitter
}

// NewS3DocumentLoader 创建一个文档加载器，使用默认的分块参数 (1000/200)。
func NewS3DocumentLoader(store ObjectStore, prefix string) *S3DocumentLoader {
	return &S3DocumentLoader{
		store:    store,
		prefix:   prefix,
		splitter: NewSplitter(DefaultChunkSize, DefaultChunkOverlap),
	}
}

// LoadDocuments 列出前缀下的所有对象并抽取文本，每个支持的对象产生一个文档。
// 列表失败（连接、权限）时记录错误并返回空集合，调用方无法与"无文档"区分。
func (l *S3DocumentLoader) LoadDocuments(ctx context.Context) []model.Document {
	keys, err := l.store.ListKeys(ctx, l.prefix)
	if err != nil {
		log.Errorf("[Loader] 列出对象失败, prefix: '%s', error: %v", l.prefix, err)
		return nil
	}
	log.Infof("[Loader] 在前缀 '%s' 下找到 %d 个对象", l.prefix, len(keys))

	var docs []model.Document
	for _, key := range keys {
		if strings.HasSuffix(key, "/") {
			continue
		}
		text, ok := l.extractText(ctx, key)
		if !ok {
			continue
		}
		docs = append(docs, model.NewDocument(text, key))
	}
	log.Infof("[Loader] 成功加载 %d 个文档", len(docs))
	return docs
}

// LoadAndSplit 加载所有文档并切分为分块。空文档不产生分块。
func (l *S3DocumentLoader) LoadAndSplit(ctx context.Context) []model.Document {
	docs := l.LoadDocuments(ctx)
	chunks := l.SplitDocuments(docs)
	log.Infof("[Loader] %d 个文档切分为 %d 个分块", len(docs), len(chunks))
	return chunks
}

// SplitDocuments 切分已加载的文档，分块继承父文档的元数据。
func (l *S3DocumentLoader) SplitDocuments(docs []model.Document) []model.Document {
	var chunks []model.Document
	for _, d := range docs {
		for _, piece := range l.splitter.Split(d.Content) {
			chunks = append(chunks, d.WithContent(piece))
		}
	}
	return chunks
}

// extractText 按扩展名解码对象内容。不支持的类型跳过并告警，不视为错误。
func (l *S3DocumentLoader) extractText(ctx context.Context, key string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(key))
	switch ext {
	case ".txt", ".md", ".text", ".docx":
	default:
		log.Warnf("[Loader] 跳过不支持的文件类型: %s", key)
		return "", false
	}

	data, err := l.store.Fetch(ctx, key)
	if err != nil {
		log.Warnf("[Loader] 下载对象失败, key: %s, error: %v", key, err)
		return "", false
	}

	if ext == ".docx" {
		return extractDocxText(data), true
	}
	if !utf8.Valid(data) {
		log.Warnf("[Loader] 对象 '%s' 不是合法的 UTF-8 文本", key)
	}
	return string(data), true
}
