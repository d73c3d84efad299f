// Package model 包含了应用的数据模型定义。
package model

import "time"

// ChatMessage 代表对话记忆中的单条消息。
type ChatMessage struct {
	Role      string    `json:"role"` // "user" 或 "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Answer 是一次 Ask 调用的完整结果。
// Sources 按检索顺序排列且允许重复，由调用方按需去重。
type Answer struct {
	Question       string     `json:"question"`
	Answer         string     `json:"answer"`
	Sources        []string   `json:"sources"`
	SourceChunks   []Document `json:"-"`
	ConversationID string     `json:"conversation_id,omitempty"`
}

// HealthInfo 描述服务的健康状态与当前激活的模型。
type HealthInfo struct {
	Ready    bool   `json:"mentor"`
	Model    string `json:"model"`
	IsOllama bool   `json:"is_ollama"`
	IsOpenAI bool   `json:"is_openai"`
}
