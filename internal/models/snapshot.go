package models

import "time"

// SnapshotTimeLayout 快照时间戳格式 (UTC, 毫秒)
const SnapshotTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Snapshot 一次成功轮询得到的完整数据，发布后不可修改
type Snapshot struct {
	Timestamp    string        `json:"timestamp"`
	Vehicles     []Vehicle     `json:"vehicles"`
	ParkingAreas []ParkingArea `json:"parkingAreas"`
	Logs         []LogEntry    `json:"logs"`
}

// EmptySnapshot 首次轮询成功前使用的空快照
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Vehicles:     []Vehicle{},
		ParkingAreas: []ParkingArea{},
		Logs:         []LogEntry{},
	}
}

// FormatSnapshotTime 格式化快照时间
func FormatSnapshotTime(t time.Time) string {
	return t.UTC().Format(SnapshotTimeLayout)
}

// LastLog 返回最后一条日志
func (s *Snapshot) LastLog() (LogEntry, bool) {
	if s == nil || len(s.Logs) == 0 {
		return LogEntry{}, false
	}
	return s.Logs[len(s.Logs)-1], true
}
