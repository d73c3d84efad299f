package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mentor-go/internal/model"
	"mentor-go/internal/repository"
	"mentor-go/pkg/llm"
	"mentor-go/pkg/log"
	"mentor-go/pkg/rubric"
)

// retrievalTopK 是每次提问检索的文档块数。
const retrievalTopK = 6

// basePrompt 定义导师角色的系统提示词，评估框架文本追加在其后。
const basePrompt = `You are an expert startup mentor and business advisor.
You have access to detailed information about the startup from their meeting minutes, emails, and calendar data.

Your role is to:
- Provide strategic advice and insights
- Identify opportunities and risks
- Answer questions based on the provided context
- Give actionable recommendations

`

// ChatService 实现带会话记忆的检索增强问答。
type ChatService interface {
	// Ask 用检索到的上下文和会话历史回答问题。
	// conversationID 为空时开启新会话并返回生成的会话 ID。
	Ask(ctx context.Context, question, conversationID string) (*model.Answer, error)
	// ClearHistory 清空指定会话的历史；conversationID 为空时清空全部会话。
	ClearHistory(ctx context.Context, conversationID string) error
	// ModelInfo 报告当前激活的 LLM。
	ModelInfo() llm.ModelInfo
}

type chatService struct {
	index        IndexService
	llm          llm.Client
	conversation repository.ConversationRepository
	systemPrompt string
}

// NewChatService 组装问答链。r 为 nil 时不注入评估框架。
func NewChatService(index IndexService, llmClient llm.Client, conversation repository.ConversationRepository, r *rubric.Rubric) ChatService {
	return &chatService{
		index:        index,
		llm:          llmClient,
		conversation: conversation,
		systemPrompt: basePrompt + r.PromptText(),
	}
}

func (s *chatService) Ask(ctx context.Context, question, conversationID string) (*model.Answer, error) {
	if !s.index.Ready() {
		return nil, ErrIndexNotReady
	}
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	results, err := s.index.Search(ctx, question, retrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("检索失败: %w", err)
	}

	history, err := s.conversation.GetHistory(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("读取会话历史失败: %w", err)
	}

	prompt := s.buildPrompt(question, results, history)
	answer, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("生成回答失败: %w", err)
	}

	if err := s.conversation.AppendTurn(ctx, conversationID, question, answer); err != nil {
		// 记忆写入失败不影响本次回答
		log.Warnf("[ChatService] 写入会话历史失败, conversationID: %s, err: %v", conversationID, err)
	}

	sources := make([]string, 0, len(results))
	chunks := make([]model.Document, 0, len(results))
	for _, res := range results {
		sources = append(sources, res.Document.Source())
		chunks = append(chunks, res.Document)
	}
	log.Infof("[ChatService] 回答完成, conversationID: %s, 引用来源: %v", conversationID, sources)

	return &model.Answer{
		Question:       question,
		Answer:         answer,
		Sources:        sources,
		SourceChunks:   chunks,
		ConversationID: conversationID,
	}, nil
}

// buildPrompt 把系统提示词、检索上下文、会话历史和问题拼装为最终提示词。
func (s *chatService) buildPrompt(question string, results []model.SearchResult, history []model.ChatMessage) string {
	var b strings.Builder
	b.WriteString(s.systemPrompt)
	b.WriteString("\nCONTEXT FROM DOCUMENTS:\n")
	for i, res := range results {
		b.WriteString(fmt.Sprintf("%d. [%s]\n%s\n\n", i+1, res.Document.Source(), res.Document.Content))
	}

	if len(history) > 0 {
		b.WriteString("CONVERSATION HISTORY:\n")
		for _, msg := range history {
			switch msg.Role {
			case "assistant":
				b.WriteString("Assistant: ")
			default:
				b.WriteString("User: ")
			}
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("QUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nANSWER (be specific, reference the context, and provide actionable insights):\n")
	return b.String()
}

func (s *chatService) ClearHistory(ctx context.Context, conversationID string) error {
	if err := s.conversation.Clear(ctx, conversationID); err != nil {
		return fmt.Errorf("清空会话历史失败: %w", err)
	}
	log.Infof("[ChatService] 会话历史已清空, conversationID: %q", conversationID)
	return nil
}

func (s *chatService) ModelInfo() llm.ModelInfo {
	return s.llm.Info()
}
