package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/parkconsole/internal/api/backend"
	"github.com/langchou/parkconsole/internal/api/handlers"
	"github.com/langchou/parkconsole/internal/config"
	"github.com/langchou/parkconsole/internal/models"
	"github.com/langchou/parkconsole/internal/repository"
	"github.com/langchou/parkconsole/internal/service"
	"github.com/langchou/parkconsole/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 创建后端客户端与轮询器
	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	logger.Info("Starting parking console",
		zap.String("port", cfg.ServerPort),
		zap.String("backend", client.BaseURL()),
		zap.Duration("poll_interval", cfg.PollInterval))

	poller := service.NewPoller(logger, backend.NewFetcher(client), cfg.DiagnosticsLimit)

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		return handlers.BuildConsole(poller)
	})
	go wsHub.Run()

	// 新快照推送到控制台
	poller.OnPublish(func(prev, next *models.Snapshot) {
		wsHub.BroadcastMessage(ws.MsgTypeViewUpdate, handlers.BuildConsole(poller))
	})

	// 日志面板自动滚动
	scroller := service.NewAutoScroller(logger, func(req service.ScrollRequest) {
		wsHub.BroadcastMessage(ws.MsgTypeScrollLogs, req)
	})
	poller.OnPublish(scroller.Observe)

	// 失败提示
	poller.OnFailure(func(f models.CycleFailure) {
		wsHub.BroadcastMessage(ws.MsgTypeCycleError, map[string]interface{}{
			"failure": f,
			"status":  poller.Status(),
		})
	})

	// 失败记录落库（可选）
	var (
		journal *service.FailureJournal
		history *repository.CycleFailureRepository
	)
	if cfg.JournalEnabled() {
		db, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect database", zap.Error(err))
		}
		defer db.Close()

		// 执行数据库迁移
		if err := db.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		logger.Info("Database migrated successfully")

		history = repository.NewCycleFailureRepository(db)
		journal = service.NewFailureJournal(logger, history, 5*time.Second)
		poller.OnFailure(journal.Record)
	}

	// 创建路由
	handler := handlers.NewHandler(logger, poller, wsHub)
	if history != nil {
		handler.SetFailureHistory(history)
	}
	router := handlers.NewRouter(cfg.Debug, handler)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 启动轮询
	if err := poller.Start(ctx, cfg.PollInterval); err != nil {
		logger.Fatal("Failed to start poller", zap.Error(err))
	}

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止轮询，进行中的请求结果会被丢弃
	if err := poller.Stop(); err != nil {
		logger.Error("Failed to stop poller", zap.Error(err))
	}
	if journal != nil {
		journal.Wait()
	}

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
