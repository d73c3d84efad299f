// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mentor-go/internal/config"
	"mentor-go/internal/handler"
	"mentor-go/internal/loader"
	"mentor-go/internal/middleware"
	"mentor-go/internal/repository"
	"mentor-go/internal/service"
	"mentor-go/internal/vectorstore"
	"mentor-go/internal/vectorstore/es"
	"mentor-go/internal/vectorstore/local"
	"mentor-go/pkg/embedding"
	"mentor-go/pkg/llm"
	"mentor-go/pkg/log"
	"mentor-go/pkg/rubric"
	"mentor-go/pkg/storage"
)

func main() {
	// 1. 加载 .env（不存在时忽略）与配置
	_ = godotenv.Load()
	cfg, err := config.Load("./configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 创建 handler 并在后台引导服务：
	//    embedding/LLM 的探测与全量索引可能耗时数分钟，
	//    先让 HTTP 端口就绪，/health 在此期间报告 initializing。
	mentorHandler := handler.NewMentorHandler()
	go func() {
		mentor, err := bootstrap(context.Background(), cfg)
		if err != nil {
			log.Errorf("服务引导失败: %v", err)
			return
		}
		mentorHandler.SetService(mentor)
		log.Info("Mentor 服务就绪")
	}()

	// 4. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), middleware.CORS(), gin.Recovery())
	mentorHandler.RegisterRoutes(r)

	// 5. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// bootstrap 按配置组装全部依赖并初始化 MentorService。
func bootstrap(ctx context.Context, cfg *config.Config) (*service.MentorService, error) {
	// 向量存储后端
	var store vectorstore.Store
	switch cfg.VectorStore.Type {
	case "es":
		esStore, err := es.New(cfg.VectorStore.ES)
		if err != nil {
			return nil, fmt.Errorf("初始化 Elasticsearch 向量存储失败: %w", err)
		}
		store = esStore
	default:
		store = local.New(cfg.VectorStore.Local.Path)
	}

	// embedding 与 LLM 客户端（带提供方探测与回退）
	embedder, embedProbes := embedding.Select(ctx, cfg.Embedding)
	for _, p := range embedProbes {
		if p.Err != nil {
			log.Warnf("[Bootstrap] embedding 提供方 %s 探测失败: %v", p.Provider, p.Err)
		}
	}
	llmClient, llmProbes := llm.Select(ctx, cfg.LLM)
	for _, p := range llmProbes {
		if p.Err != nil {
			log.Warnf("[Bootstrap] LLM 提供方 %s 探测失败: %v", p.Provider, p.Err)
		}
	}

	// 会话记忆后端
	var conversationRepo repository.ConversationRepository
	if cfg.Memory.Type == "redis" {
		repo, err := repository.NewRedisConversationRepository(cfg.Memory.Redis)
		if err != nil {
			return nil, fmt.Errorf("初始化 Redis 会话存储失败: %w", err)
		}
		conversationRepo = repo
	} else {
		conversationRepo = repository.NewMemoryConversationRepository()
	}

	// 文档来源：未配置存储桶时传入 nil，系统建立占位索引
	var docLoader service.DocumentLoader
	if cfg.S3.Bucket != "" {
		s3Client, err := storage.New(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("初始化对象存储失败: %w", err)
		}
		docLoader = loader.NewS3DocumentLoader(s3Client, cfg.S3.Prefix)
	} else {
		log.Warn("[Bootstrap] 未配置 S3 存储桶, 将使用占位索引")
	}

	indexService := service.NewIndexService(embedder, store)
	chatService := service.NewChatService(indexService, llmClient, conversationRepo, rubric.Load(cfg.Rubric.Path))

	return service.NewMentorService(ctx, docLoader, indexService, chatService, cfg.ForceReload)
}
