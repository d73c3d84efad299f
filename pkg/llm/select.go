package llm

import (
	"context"

	"mentor-go/internal/config"
	"mentor-go/pkg/log"
)

// ProbeResult 记录一次提供方探测的结论。
// Err 为 nil 表示提供方可用。
type ProbeResult struct {
	Provider string
	Err      error
}

// Select 在构造期选定 LLM 提供方：优先探测本地 Ollama，
// 探测失败则回退到 OpenAI 兼容的云端服务。选择一经做出即固定，
// 不做按请求的回退。返回的探测结果用于日志与健康上报。
func Select(ctx context.Context, cfg config.LLMConfig) (Client, []ProbeResult) {
	var probes []ProbeResult

	gen := GenerationParams{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	if cfg.UseOllama {
		candidate := NewOllamaClient(cfg.Ollama, gen)
		err := candidate.Probe(ctx)
		probes = append(probes, ProbeResult{Provider: "ollama", Err: err})
		if err == nil {
			log.Infof("[LLM] 使用 Ollama, model: %s", cfg.Ollama.Model)
			return candidate, probes
		}
		log.Warnf("[LLM] Ollama 不可用: %v, 回退到 OpenAI", err)
	}

	// 云端客户端不做探测，错误留待首次调用时暴露（与密钥延迟校验一致）
	probes = append(probes, ProbeResult{Provider: "openai"})
	log.Infof("[LLM] 使用 OpenAI, model: %s", cfg.OpenAI.Model)
	return NewOpenAIClient(cfg.OpenAI, gen), probes
}
