package models

// LogEntry 后端事件日志，只追加不修改
type LogEntry struct {
	ID        int64  `json:"id"`
	Log       string `json:"log"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}
