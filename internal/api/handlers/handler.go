package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/parkconsole/internal/models"
	"github.com/langchou/parkconsole/internal/service"
	"github.com/langchou/parkconsole/pkg/ws"
)

// SnapshotSource 控制台读取的轮询状态
type SnapshotSource interface {
	Current() *models.Snapshot
	Failures() []models.CycleFailure
	Status() service.Status
}

// FailureHistory 持久化的失败记录
type FailureHistory interface {
	ListRecent(ctx context.Context, limit int) ([]*models.CycleFailure, error)
	Count(ctx context.Context) (int64, error)
}

// defaultDiagnosticsLimit 未指定 limit 时从日志库读取的条数
const defaultDiagnosticsLimit = 50

// Handler HTTP 处理器
type Handler struct {
	logger   *zap.Logger
	source   SnapshotSource
	history  FailureHistory
	wsHub    *ws.Hub
	upgrader websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(logger *zap.Logger, source SnapshotSource, wsHub *ws.Hub) *Handler {
	return &Handler{
		logger: logger,
		source: source,
		wsHub:  wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 现场单机控制台
			},
		},
	}
}

// SetFailureHistory 启用持久化失败记录查询
func (h *Handler) SetFailureHistory(history FailureHistory) {
	h.history = history
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(consoleTemplate)

	// 控制台页面
	r.GET("/", h.ConsolePage)

	// API 路由
	api := r.Group("/api")
	{
		api.GET("/view", h.GetView)
		api.GET("/snapshot", h.GetSnapshot)
		api.GET("/diagnostics", h.ListDiagnostics)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// ConsolePage 渲染控制台
func (h *Handler) ConsolePage(c *gin.Context) {
	c.HTML(http.StatusOK, "console.html", BuildConsole(h.source))
}

// GetView 获取三个面板的展示数据
func (h *Handler) GetView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": BuildConsole(h.source)})
}

// GetSnapshot 获取当前快照
func (h *Handler) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.source.Current()})
}

// ListDiagnostics 获取最近的轮询失败记录，按时间先后排列
func (h *Handler) ListDiagnostics(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	if h.history != nil {
		failures, total, err := h.journalFailures(c.Request.Context(), limit)
		if err == nil {
			c.JSON(http.StatusOK, gin.H{
				"data":   failures,
				"total":  total,
				"source": "journal",
			})
			return
		}
		h.logger.Warn("Failed to read failure journal, using in-memory diagnostics", zap.Error(err))
	}

	failures := h.source.Failures()
	total := len(failures)
	if limit > 0 && limit < len(failures) {
		failures = failures[len(failures)-limit:]
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   failures,
		"total":  total,
		"source": "memory",
	})
}

// journalFailures 从日志库读取，结果转为时间正序
func (h *Handler) journalFailures(ctx context.Context, limit int) ([]models.CycleFailure, int64, error) {
	if limit == 0 {
		limit = defaultDiagnosticsLimit
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	recent, err := h.history.ListRecent(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := h.history.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	failures := make([]models.CycleFailure, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		failures = append(failures, *recent[i])
	}
	return failures, total, nil
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	status := h.source.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"poller":               status.State,
		"state_since":          status.StateSince,
		"generation":           status.Generation,
		"published_generation": status.PublishedGeneration,
		"stale":                status.Stale,
		"ws_clients":           h.wsHub.ClientCount(),
	})
}
