// Package config 负责加载、校验和管理应用程序的配置。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
// 所有键都可以通过 MENTOR_ 前缀的环境变量覆盖，例如 MENTOR_S3_BUCKET。
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	S3          S3Config          `mapstructure:"s3"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Memory      MemoryConfig      `mapstructure:"memory"`
	Rubric      RubricConfig      `mapstructure:"rubric"`
	ForceReload bool              `mapstructure:"force_reload"`
}

// ServerConfig 存储 HTTP 服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// S3Config 存储对象存储（S3/MinIO）的配置。Bucket 为空时系统降级为占位索引。
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
}

// VectorStoreConfig 选择并配置向量索引的存储后端。
type VectorStoreConfig struct {
	Type  string           `mapstructure:"type"` // "local" 或 "es"
	Local LocalStoreConfig `mapstructure:"local"`
	ES    ESStoreConfig    `mapstructure:"es"`
}

// LocalStoreConfig 配置目录持久化的本地向量索引。
type LocalStoreConfig struct {
	Path string `mapstructure:"path"`
}

// ESStoreConfig 配置 Elasticsearch 向量索引。
type ESStoreConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
type EmbeddingConfig struct {
	UseOllama  bool         `mapstructure:"use_ollama"`
	Ollama     OllamaConfig `mapstructure:"ollama"`
	OpenAI     OpenAIConfig `mapstructure:"openai"`
	Dimensions int          `mapstructure:"dimensions"`
}

// LLMConfig 存储大语言模型相关的配置。
// Temperature 与 MaxTokens 在构造时固定，不支持按请求覆盖。
type LLMConfig struct {
	UseOllama   bool         `mapstructure:"use_ollama"`
	Ollama      OllamaConfig `mapstructure:"ollama"`
	OpenAI      OpenAIConfig `mapstructure:"openai"`
	Temperature float64      `mapstructure:"temperature"`
	MaxTokens   int          `mapstructure:"max_tokens"`
}

// OllamaConfig 配置本地 Ollama 服务。
type OllamaConfig struct {
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig 配置 OpenAI 兼容的云端服务。
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// MemoryConfig 选择对话记忆的存储后端。
type MemoryConfig struct {
	Type  string      `mapstructure:"type"` // "memory" 或 "redis"
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RubricConfig 指向评估框架（rubric）JSON 文件。Path 为空则不注入评估框架。
type RubricConfig struct {
	Path string `mapstructure:"path"`
}

// Load 从指定路径读取 YAML 配置并叠加环境变量，返回校验后的配置。
// 配置文件不存在时仅使用默认值与环境变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MENTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的取值范围，拒绝无法识别的后端类型。
func (c *Config) Validate() error {
	switch c.VectorStore.Type {
	case "local", "es":
	default:
		return fmt.Errorf("未知的 vector_store.type: %q (支持 local/es)", c.VectorStore.Type)
	}
	if c.VectorStore.Type == "local" && c.VectorStore.Local.Path == "" {
		return errors.New("vector_store.local.path 不能为空")
	}
	if c.VectorStore.Type == "es" && c.VectorStore.ES.Addresses == "" {
		return errors.New("vector_store.es.addresses 不能为空")
	}

	switch c.Memory.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("未知的 memory.type: %q (支持 memory/redis)", c.Memory.Type)
	}
	if c.Memory.Type == "redis" && c.Memory.Redis.Addr == "" {
		return errors.New("memory.redis.addr 不能为空")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature 超出范围 [0,2]: %v", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens 必须为正数: %d", c.LLM.MaxTokens)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.mode", "release")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "")

	// 环境变量覆盖依赖已注册的键，空值键也要显式声明默认值
	v.SetDefault("s3.endpoint", "s3.amazonaws.com")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")

	v.SetDefault("vector_store.type", "local")
	v.SetDefault("vector_store.local.path", "./vector_db")
	v.SetDefault("vector_store.es.addresses", "")
	v.SetDefault("vector_store.es.username", "")
	v.SetDefault("vector_store.es.password", "")
	v.SetDefault("vector_store.es.index_name", "mentor_knowledge")

	v.SetDefault("embedding.use_ollama", true)
	v.SetDefault("embedding.ollama.model", "nomic-embed-text")
	v.SetDefault("embedding.ollama.base_url", "http://localhost:11434")
	v.SetDefault("embedding.openai.api_key", "")
	v.SetDefault("embedding.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 0)

	v.SetDefault("llm.use_ollama", true)
	v.SetDefault("llm.ollama.model", "llama3.1")
	v.SetDefault("llm.ollama.base_url", "http://localhost:11434")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 2000)

	v.SetDefault("memory.type", "memory")
	v.SetDefault("memory.redis.addr", "")
	v.SetDefault("memory.redis.password", "")
	v.SetDefault("memory.redis.db", 0)

	v.SetDefault("rubric.path", "./configs/example_rubrics.json")

	v.SetDefault("force_reload", false)
}
