package backend

import (
	"errors"
	"fmt"
)

// 错误类型
const (
	KindTransport = "transport"
	KindStatus    = "status"
	KindParse     = "parse"
)

// TransportError 请求未发出或没有收到响应
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError 收到非 2xx 响应
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

// ParseError 响应体不是合法 JSON
type ParseError struct {
	Endpoint string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Endpoint, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CycleError 一次轮询失败，保留具体错误用于诊断
type CycleError struct {
	Err error
}

func (e *CycleError) Error() string {
	return "fetch cycle: " + e.Err.Error()
}

func (e *CycleError) Unwrap() error { return e.Err }

// Kind 返回具体错误类型
func (e *CycleError) Kind() string {
	var (
		te *TransportError
		se *StatusError
		pe *ParseError
	)
	switch {
	case errors.As(e.Err, &se):
		return KindStatus
	case errors.As(e.Err, &pe):
		return KindParse
	case errors.As(e.Err, &te):
		return KindTransport
	}
	return KindTransport
}

// Endpoint 返回失败的接口路径
func (e *CycleError) Endpoint() string {
	var (
		te *TransportError
		se *StatusError
		pe *ParseError
	)
	switch {
	case errors.As(e.Err, &se):
		return se.Endpoint
	case errors.As(e.Err, &pe):
		return pe.Endpoint
	case errors.As(e.Err, &te):
		return te.Endpoint
	}
	return ""
}

// StatusCode 返回 HTTP 状态码，非 StatusError 时为 0
func (e *CycleError) StatusCode() int {
	var se *StatusError
	if errors.As(e.Err, &se) {
		return se.StatusCode
	}
	return 0
}
