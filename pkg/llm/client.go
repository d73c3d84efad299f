// Package llm provides clients for interacting with Large Language Models.
package llm

import (
	"context"
	"errors"
)

// ErrNotInitialized 表示没有可用的后端模型。
var ErrNotInitialized = errors.New("llm not initialized")

// Client defines the interface for an LLM client.
type Client interface {
	// Generate 以单个 prompt 进行一次阻塞式文本生成。
	Generate(ctx context.Context, prompt string) (string, error)
	// Probe 以一次低成本调用验证服务可达。
	Probe(ctx context.Context) error
	// Info 报告当前激活的模型，用于健康上报。
	Info() ModelInfo
}

// ModelInfo 描述激活的模型提供方。
type ModelInfo struct {
	Name     string
	IsOllama bool
	IsOpenAI bool
}

// GenerationParams 控制生成行为，在构造时固定。
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}
