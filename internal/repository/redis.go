package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"mentor-go/internal/config"
	"mentor-go/internal/model"
	"mentor-go/pkg/log"
)

const conversationKeyPrefix = "conversation:"

// redisConversationRepository 将对话历史保存在 Redis 中，支持多实例共享与重启保留。
type redisConversationRepository struct {
	client *redis.Client
}

// NewRedisConversationRepository 创建基于 Redis 的对话历史存储并验证连接。
func NewRedisConversationRepository(cfg config.RedisConfig) (ConversationRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	log.Infof("[Repository] Redis 连接成功: %s", cfg.Addr)
	return &redisConversationRepository{client: client}, nil
}

func conversationKey(conversationID string) string {
	return conversationKeyPrefix + conversationID
}

func (r *redisConversationRepository) GetHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	data, err := r.client.Get(ctx, conversationKey(conversationID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取对话历史失败: %w", err)
	}

	var history []model.ChatMessage
	if err := json.Unmarshal(data, &history); err != nil {
		// 历史数据损坏时丢弃并从头开始，而不是让整个会话不可用
		log.Warnf("[Repository] 对话历史反序列化失败, conversationID: %s, err: %v", conversationID, err)
		return nil, nil
	}
	return history, nil
}

func (r *redisConversationRepository) AppendTurn(ctx context.Context, conversationID, question, answer string) error {
	history, err := r.GetHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	now := time.Now()
	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: now},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: now},
	)
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("序列化对话历史失败: %w", err)
	}
	if err := r.client.Set(ctx, conversationKey(conversationID), data, historyTTL).Err(); err != nil {
		return fmt.Errorf("写入对话历史失败: %w", err)
	}
	return nil
}

func (r *redisConversationRepository) Clear(ctx context.Context, conversationID string) error {
	if conversationID != "" {
		if err := r.client.Del(ctx, conversationKey(conversationID)).Err(); err != nil {
			return fmt.Errorf("删除对话历史失败: %w", err)
		}
		return nil
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, conversationKeyPrefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("扫描对话历史失败: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("批量删除对话历史失败: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
