package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// 后端接口
const (
	PathVehicles     = "/cars_on_parking_license_plates"
	PathParkingAreas = "/get_parking_data"
	PathLogs         = "/logs"
)

// 错误响应体最多保留的字节数
const maxErrorBody = 512

// Client 停车监控后端客户端
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient 创建后端客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// BaseURL 后端地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get 执行 GET 请求，返回校验过的原始 JSON
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: path, Err: err}
	}

	if !json.Valid(body) {
		return nil, &ParseError{Endpoint: path, Err: errors.New("invalid json body")}
	}

	return json.RawMessage(body), nil
}

// GetVehicles 获取场内车辆 { "cars": [...] }
func (c *Client) GetVehicles(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, PathVehicles)
}

// GetParkingAreas 获取停车区域列表
func (c *Client) GetParkingAreas(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, PathParkingAreas)
}

// GetLogs 获取事件日志
func (c *Client) GetLogs(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, PathLogs)
}
