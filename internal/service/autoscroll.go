package service

import (
	"go.uber.org/zap"

	"github.com/langchou/parkconsole/internal/models"
)

// ScrollTargetLogs 日志面板
const ScrollTargetLogs = "logs"

// ScrollRequest 滚动到日志面板底部的指令
type ScrollRequest struct {
	Target    string `json:"target"`
	Behavior  string `json:"behavior"`
	LastLogID int64  `json:"last_log_id"`
	LogCount  int    `json:"log_count"`
}

// LogsChanged 日志长度或最后一条不同时返回 true
func LogsChanged(prev, next *models.Snapshot) bool {
	var prevLen, nextLen int
	if prev != nil {
		prevLen = len(prev.Logs)
	}
	if next != nil {
		nextLen = len(next.Logs)
	}
	if prevLen != nextLen {
		return true
	}
	if nextLen == 0 {
		return false
	}
	return prev.Logs[prevLen-1] != next.Logs[nextLen-1]
}

// AutoScroller 日志变化时让控制台滚动到最新一条
type AutoScroller struct {
	logger *zap.Logger
	scroll func(ScrollRequest)
}

// NewAutoScroller 创建 AutoScroller，scroll 负责实际滚动
func NewAutoScroller(logger *zap.Logger, scroll func(ScrollRequest)) *AutoScroller {
	return &AutoScroller{logger: logger, scroll: scroll}
}

// Observe 作为 PublishListener 使用
func (a *AutoScroller) Observe(prev, next *models.Snapshot) {
	if !LogsChanged(prev, next) {
		return
	}

	req := ScrollRequest{
		Target:   ScrollTargetLogs,
		Behavior: "smooth",
		LogCount: len(next.Logs),
	}
	if last, ok := next.LastLog(); ok {
		req.LastLogID = last.ID
	}

	a.logger.Debug("Scrolling logs to bottom",
		zap.Int("log_count", req.LogCount),
		zap.Int64("last_log_id", req.LastLogID))
	a.scroll(req)
}
