package service

import (
	"context"
	"fmt"
	"sync"

	"mentor-go/internal/loader"
	"mentor-go/internal/model"
	"mentor-go/pkg/log"
)

// 没有配置文档来源时写入的占位文档，保证索引与问答链可用。
const (
	placeholderContent = "No documents loaded yet."
	placeholderSource  = "system"
)

// DocumentLoader 抽象文档来源，便于在测试中替换 S3。
type DocumentLoader interface {
	LoadAndSplit(ctx context.Context) []model.Document
}

var _ DocumentLoader = (*loader.S3DocumentLoader)(nil)

// MentorService 是对外的服务门面，聚合索引、问答与会话记忆。
type MentorService struct {
	mu sync.RWMutex

	loader DocumentLoader
	index  IndexService
	chat   ChatService

	forceReload bool
}

// NewMentorService 组装并引导整个问答系统：
// 已有索引且未要求强制重建时直接加载，否则从文档源重建。
// docLoader 为 nil 表示没有配置文档来源，此时建立占位索引。
func NewMentorService(ctx context.Context, docLoader DocumentLoader, index IndexService, chat ChatService, forceReload bool) (*MentorService, error) {
	s := &MentorService{
		loader:      docLoader,
		index:       index,
		chat:        chat,
		forceReload: forceReload,
	}

	if err := s.bootstrap(ctx); err != nil {
		return nil, err
	}
	log.Infow("[MentorService] 服务初始化完成",
		"model", chat.ModelInfo().Name,
		"ready", index.Ready(),
	)
	return s, nil
}

func (s *MentorService) bootstrap(ctx context.Context) error {
	if s.index.Exists(ctx) && !s.forceReload {
		log.Info("[MentorService] 发现已有索引, 尝试直接加载")
		err := s.index.LoadIndex(ctx)
		if err == nil {
			return nil
		}
		// 模型不一致或索引损坏时回退到全量重建
		log.Warnf("[MentorService] 加载已有索引失败, 将重建: %v", err)
	}
	return s.rebuild(ctx)
}

// rebuild 从文档源重建索引。调用方负责持有写锁（引导期除外）。
func (s *MentorService) rebuild(ctx context.Context) error {
	if s.loader == nil {
		log.Warn("[MentorService] 未配置文档来源, 使用占位索引")
		placeholder := []model.Document{model.NewDocument(placeholderContent, placeholderSource)}
		if err := s.index.CreateIndex(ctx, placeholder); err != nil {
			return fmt.Errorf("建立占位索引失败: %w", err)
		}
		return nil
	}

	chunks := s.loader.LoadAndSplit(ctx)
	if len(chunks) == 0 {
		log.Warn("[MentorService] 文档源中没有找到任何文档, 保持现有索引不变")
		return nil
	}
	if err := s.index.CreateIndex(ctx, chunks); err != nil {
		return fmt.Errorf("重建索引失败: %w", err)
	}
	return nil
}

// Ask 回答问题。重建期间的提问会阻塞到重建完成。
func (s *MentorService) Ask(ctx context.Context, question, conversationID string) (*model.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat.Ask(ctx, question, conversationID)
}

// ClearHistory 清空会话历史。
func (s *MentorService) ClearHistory(ctx context.Context, conversationID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat.ClearHistory(ctx, conversationID)
}

// Reload 从文档源重建索引，期间阻塞所有提问。
func (s *MentorService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Info("[MentorService] 开始重新加载文档")
	return s.rebuild(ctx)
}

// Health 报告服务的就绪状态与激活的模型。
func (s *MentorService) Health() model.HealthInfo {
	info := s.chat.ModelInfo()
	return model.HealthInfo{
		Ready:    s.index.Ready(),
		Model:    info.Name,
		IsOllama: info.IsOllama,
		IsOpenAI: info.IsOpenAI,
	}
}
