// Package model 包含了应用的数据模型定义。
package model

// MetaSource 是元数据中来源标识的键，取值为对象存储的 key。
const MetaSource = "source"

// Document 是摄取内容的基本单元，也用于表示切分后的分块（Chunk）。
// 分块继承父文档的元数据，至少包含 source 标识。
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// NewDocument 创建一个带来源标识的文档。
func NewDocument(content, source string) Document {
	return Document{
		Content:  content,
		Metadata: map[string]string{MetaSource: source},
	}
}

// Source 返回文档的来源标识，缺失时返回 "unknown"。
func (d Document) Source() string {
	if s, ok := d.Metadata[MetaSource]; ok && s != "" {
		return s
	}
	return "unknown"
}

// WithContent 返回一个内容被替换、元数据被复制的新文档，用于派生分块。
func (d Document) WithContent(content string) Document {
	meta := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	return Document{Content: content, Metadata: meta}
}

// SearchResult 表示一条相似度检索命中，Score 越大越相似。
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}
