// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"mentor-go/internal/service"
	"mentor-go/pkg/log"
)

const serviceVersion = "1.0.0"

// MentorHandler 暴露问答服务的 REST 接口。
// 服务在后台异步初始化，初始化完成前 /health 报告 initializing，
// 其余接口返回 503。
type MentorHandler struct {
	mu     sync.RWMutex
	mentor *service.MentorService
}

// NewMentorHandler 创建一个尚未绑定服务实例的 handler。
func NewMentorHandler() *MentorHandler {
	return &MentorHandler{}
}

// SetService 绑定初始化完成的服务实例，由引导协程调用。
func (h *MentorHandler) SetService(mentor *service.MentorService) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mentor = mentor
}

func (h *MentorHandler) service() *service.MentorService {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mentor
}

// RegisterRoutes 把全部路由挂到 gin 引擎上。
func (h *MentorHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.POST("/ask", h.Ask)
	r.POST("/clear", h.Clear)
	r.POST("/reload", h.Reload)
}

// Root 是简单的存活探测。
func (h *MentorHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "Mentor API",
		"version": serviceVersion,
	})
}

// Health 报告初始化状态与激活的模型。
func (h *MentorHandler) Health(c *gin.Context) {
	mentor := h.service()
	if mentor == nil {
		c.JSON(http.StatusOK, gin.H{
			"status": "initializing",
			"mentor": false,
		})
		return
	}

	info := mentor.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"mentor":    info.Ready,
		"model":     info.Model,
		"is_ollama": info.IsOllama,
		"is_openai": info.IsOpenAI,
	})
}

type askRequest struct {
	Question       string `json:"question" binding:"required"`
	ConversationID string `json:"conversation_id"`
}

type askResponse struct {
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	Sources        []string `json:"sources"`
	ConversationID string   `json:"conversation_id"`
}

// Ask 处理一次提问。返回的来源列表已去重且保持首次出现顺序。
func (h *MentorHandler) Ask(c *gin.Context) {
	mentor := h.service()
	if mentor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Mentor not initialized"})
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "question 不能为空"})
		return
	}

	answer, err := mentor.Ask(c.Request.Context(), req.Question, req.ConversationID)
	if err != nil {
		log.Errorf("[Handler] 处理提问失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, askResponse{
		Question:       answer.Question,
		Answer:         answer.Answer,
		Sources:        dedupeSources(answer.Sources),
		ConversationID: answer.ConversationID,
	})
}

type clearRequest struct {
	ConversationID string `json:"conversation_id"`
}

// Clear 清空会话历史。请求体可省略，此时清空全部会话。
func (h *MentorHandler) Clear(c *gin.Context) {
	mentor := h.service()
	if mentor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Mentor not initialized"})
		return
	}

	var req clearRequest
	_ = c.ShouldBindJSON(&req)

	if err := mentor.ClearHistory(c.Request.Context(), req.ConversationID); err != nil {
		log.Errorf("[Handler] 清空会话失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Conversation cleared"})
}

// Reload 从文档源重建索引。
func (h *MentorHandler) Reload(c *gin.Context) {
	mentor := h.service()
	if mentor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Mentor not initialized"})
		return
	}

	if err := mentor.Reload(c.Request.Context()); err != nil {
		log.Errorf("[Handler] 重新加载文档失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Documents reloaded"})
}

// dedupeSources 去重并保持首次出现的顺序。
func dedupeSources(sources []string) []string {
	seen := make(map[string]struct{}, len(sources))
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
