// Package repository 提供对话历史的持久化访问。
package repository

import (
	"context"
	"time"

	"mentor-go/internal/model"
)

const (
	// maxHistoryTurns 限制每个会话保留的消息条数（问与答各算一条）。
	maxHistoryTurns = 20
	// historyTTL 是 Redis 后端中会话记录的过期时间。
	historyTTL = 7 * 24 * time.Hour
)

// ConversationRepository 定义对话历史的存取接口。
// 历史按 conversationID 隔离，每个会话最多保留 maxHistoryTurns 条消息。
type ConversationRepository interface {
	// GetHistory 返回指定会话的全部消息，按时间先后排序。
	GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	// AppendTurn 向会话追加一轮问答，并裁剪超出上限的旧消息。
	AppendTurn(ctx context.Context, conversationID, question, answer string) error
	// Clear 清空指定会话；conversationID 为空串时清空全部会话。
	Clear(ctx context.Context, conversationID string) error
}
