package repository

import (
	"context"
	"sync"
	"time"

	"mentor-go/internal/model"
)

// memoryConversationRepository 将对话历史保存在进程内，用于单机部署与测试。
type memoryConversationRepository struct {
	mu       sync.RWMutex
	sessions map[string][]model.ChatMessage
}

// NewMemoryConversationRepository 创建进程内的对话历史存储。
func NewMemoryConversationRepository() ConversationRepository {
	return &memoryConversationRepository{
		sessions: make(map[string][]model.ChatMessage),
	}
}

func (r *memoryConversationRepository) GetHistory(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.sessions[conversationID]
	// 返回副本，避免调用方修改内部状态
	out := make([]model.ChatMessage, len(history))
	copy(out, history)
	return out, nil
}

func (r *memoryConversationRepository) AppendTurn(_ context.Context, conversationID, question, answer string) error {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	history := append(r.sessions[conversationID],
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	r.sessions[conversationID] = history
	return nil
}

func (r *memoryConversationRepository) Clear(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conversationID == "" {
		r.sessions = make(map[string][]model.ChatMessage)
		return nil
	}
	delete(r.sessions, conversationID)
	return nil
}
