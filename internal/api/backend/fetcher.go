package backend

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"
)

// RawPayloads 一次轮询取到的三份原始数据
type RawPayloads struct {
	Vehicles     json.RawMessage
	ParkingAreas json.RawMessage
	Logs         json.RawMessage
}

// Fetcher 并发拉取三个数据源
type Fetcher struct {
	client *Client
}

// NewFetcher 创建 Fetcher
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// Run 并发请求三个接口并等待全部完成。
// 任意一个失败整次轮询失败，已成功的数据一并丢弃。
func (f *Fetcher) Run(ctx context.Context) (*RawPayloads, error) {
	var (
		raw RawPayloads
		g   errgroup.Group
	)

	g.Go(func() error {
		body, err := f.client.GetVehicles(ctx)
		raw.Vehicles = body
		return err
	})
	g.Go(func() error {
		body, err := f.client.GetParkingAreas(ctx)
		raw.ParkingAreas = body
		return err
	})
	g.Go(func() error {
		body, err := f.client.GetLogs(ctx)
		raw.Logs = body
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, &CycleError{Err: err}
	}

	return &raw, nil
}
