package service

import (
	"encoding/json"
	"time"

	"github.com/langchou/parkconsole/internal/api/backend"
	"github.com/langchou/parkconsole/internal/models"
)

// vehiclesEnvelope /cars_on_parking_license_plates 的响应结构
type vehiclesEnvelope struct {
	Cars json.RawMessage `json:"cars"`
}

// Normalize 将三份原始数据合并为一个新快照。
// 每个列表缺失或格式错误时各自退化为空列表，时间戳取 now。
func Normalize(raw *backend.RawPayloads, now time.Time) *models.Snapshot {
	snap := &models.Snapshot{
		Timestamp:    models.FormatSnapshotTime(now),
		Vehicles:     []models.Vehicle{},
		ParkingAreas: []models.ParkingArea{},
		Logs:         []models.LogEntry{},
	}
	if raw == nil {
		return snap
	}

	var env vehiclesEnvelope
	if err := json.Unmarshal(raw.Vehicles, &env); err == nil {
		snap.Vehicles = decodeList[models.Vehicle](env.Cars)
	}
	snap.ParkingAreas = decodeList[models.ParkingArea](raw.ParkingAreas)
	snap.Logs = decodeList[models.LogEntry](raw.Logs)

	return snap
}

// decodeList 解析 JSON 数组，失败或为 null 时返回空切片
func decodeList[T any](data json.RawMessage) []T {
	if len(data) == 0 {
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil || out == nil {
		return []T{}
	}
	return out
}
