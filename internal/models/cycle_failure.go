package models

import "time"

// CycleFailure 轮询失败的诊断记录
type CycleFailure struct {
	ID         string    `json:"id" db:"id"`
	Generation uint64    `json:"generation" db:"generation"`
	Kind       string    `json:"kind" db:"kind"` // transport, status, parse
	Endpoint   string    `json:"endpoint" db:"endpoint"`
	StatusCode int       `json:"status_code,omitempty" db:"status_code"`
	Message    string    `json:"message" db:"message"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}
