package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/parkconsole/internal/api/backend"
	"github.com/langchou/parkconsole/internal/models"
	"github.com/langchou/parkconsole/internal/state"
)

// CycleFetcher 一次轮询的数据拉取
type CycleFetcher interface {
	Run(ctx context.Context) (*backend.RawPayloads, error)
}

// PublishListener 新快照发布回调，prev 为被替换的快照
type PublishListener func(prev, next *models.Snapshot)

// FailureListener 轮询失败回调
type FailureListener func(failure models.CycleFailure)

// Poller 定时轮询后端并发布快照
type Poller struct {
	logger           *zap.Logger
	fetcher          CycleFetcher
	machine          *state.Machine
	now              func() time.Time
	diagnosticsLimit int

	current    atomic.Pointer[models.Snapshot]
	generation atomic.Uint64 // 最近一次启动的轮询代数

	// publishMu 保证快照替换与回调按发布顺序执行
	publishMu        sync.Mutex
	lastPublished    atomic.Uint64
	publishListeners []PublishListener
	failureListeners []FailureListener

	mu       sync.RWMutex
	failures []models.CycleFailure

	stopCh chan struct{}
	wg     sync.WaitGroup // 定时循环
	cycles sync.WaitGroup // 进行中的轮询
}

// NewPoller 创建轮询器，初始状态 idle，当前快照为空快照
func NewPoller(logger *zap.Logger, fetcher CycleFetcher, diagnosticsLimit int) *Poller {
	if diagnosticsLimit <= 0 {
		diagnosticsLimit = 50
	}

	p := &Poller{
		logger:           logger,
		fetcher:          fetcher,
		now:              time.Now,
		diagnosticsLimit: diagnosticsLimit,
		stopCh:           make(chan struct{}),
	}
	p.machine = state.NewMachine(func(from, to string) {
		p.logger.Info("Poller state changed", zap.String("from", from), zap.String("to", to))
	})
	p.current.Store(models.EmptySnapshot())

	return p
}

// OnPublish 注册快照发布回调，需在 Start 之前调用
func (p *Poller) OnPublish(l PublishListener) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	p.publishListeners = append(p.publishListeners, l)
}

// OnFailure 注册失败回调
func (p *Poller) OnFailure(l FailureListener) {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	p.failureListeners = append(p.failureListeners, l)
}

// Start 启动轮询：立即执行一次，之后每 interval 执行一次
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("start poller: invalid interval %v", interval)
	}
	if err := p.machine.Trigger(state.EventStart); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	p.logger.Info("Starting poller", zap.Duration("interval", interval))

	// 启动时立即执行一次轮询
	p.launchCycle(ctx)

	p.wg.Add(1)
	go p.pollLoop(ctx, interval)

	return nil
}

// Stop 停止定时轮询。进行中的请求不会被取消，但其结果会被丢弃。
func (p *Poller) Stop() error {
	// 与 publish 互斥，Stop 返回后不会再有快照替换或回调
	p.publishMu.Lock()
	err := p.machine.Trigger(state.EventStop)
	p.publishMu.Unlock()
	if err != nil {
		return fmt.Errorf("stop poller: %w", err)
	}

	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("Poller stopped", zap.Uint64("generation", p.generation.Load()))
	return nil
}

// Wait 等待所有进行中的轮询结束
func (p *Poller) Wait() {
	p.cycles.Wait()
}

// pollLoop 定时循环
func (p *Poller) pollLoop(ctx context.Context, interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 不等待上一轮完成，轮询可以重叠
			p.launchCycle(ctx)
		}
	}
}

func (p *Poller) launchCycle(ctx context.Context) {
	p.cycles.Add(1)
	go func() {
		defer p.cycles.Done()
		p.runCycle(ctx)
	}()
}

// runCycle 执行一次 fetch -> normalize -> publish
func (p *Poller) runCycle(ctx context.Context) {
	gen := p.generation.Add(1)

	raw, err := p.fetcher.Run(ctx)

	if !p.machine.IsRunning() {
		p.logger.Debug("Discarding cycle result, poller not running",
			zap.Uint64("generation", gen),
			zap.String("state", p.machine.CurrentState()))
		return
	}

	if err != nil {
		p.recordFailure(gen, err)
		return
	}

	p.publish(gen, Normalize(raw, p.now()))
}

// publish 只有代数高于已发布快照时才替换
func (p *Poller) publish(gen uint64, snap *models.Snapshot) bool {
	p.publishMu.Lock()
	defer p.publishMu.Unlock()

	if gen <= p.lastPublished.Load() {
		p.logger.Debug("Discarding stale cycle result",
			zap.Uint64("generation", gen),
			zap.Uint64("published_generation", p.lastPublished.Load()))
		return false
	}
	if !p.machine.IsRunning() {
		return false
	}

	prev := p.current.Swap(snap)
	p.lastPublished.Store(gen)

	p.logger.Debug("Updated data",
		zap.Uint64("generation", gen),
		zap.String("timestamp", snap.Timestamp),
		zap.Int("vehicles", len(snap.Vehicles)),
		zap.Int("parking_areas", len(snap.ParkingAreas)),
		zap.Int("logs", len(snap.Logs)))

	for _, l := range p.publishListeners {
		l(prev, snap)
	}
	return true
}

// recordFailure 保留当前快照，记录诊断信息
func (p *Poller) recordFailure(gen uint64, err error) {
	failure := models.CycleFailure{
		ID:         uuid.NewString(),
		Generation: gen,
		Kind:       backend.KindTransport,
		Message:    err.Error(),
		OccurredAt: p.now(),
	}

	var cycleErr *backend.CycleError
	if errors.As(err, &cycleErr) {
		failure.Kind = cycleErr.Kind()
		failure.Endpoint = cycleErr.Endpoint()
		failure.StatusCode = cycleErr.StatusCode()
	}

	p.publishMu.Lock()
	defer p.publishMu.Unlock()
	if !p.machine.IsRunning() {
		return
	}

	p.logger.Warn("Failed to fetch data, keeping previous snapshot",
		zap.Error(err),
		zap.Uint64("generation", gen),
		zap.String("kind", failure.Kind),
		zap.String("endpoint", failure.Endpoint),
		zap.Int("status_code", failure.StatusCode))

	p.mu.Lock()
	p.failures = append(p.failures, failure)
	if over := len(p.failures) - p.diagnosticsLimit; over > 0 {
		p.failures = append([]models.CycleFailure(nil), p.failures[over:]...)
	}
	p.mu.Unlock()

	for _, l := range p.failureListeners {
		l(failure)
	}
}

// Current 当前快照，永不为 nil
func (p *Poller) Current() *models.Snapshot {
	return p.current.Load()
}

// Failures 最近的失败记录，按时间先后排列
func (p *Poller) Failures() []models.CycleFailure {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.CycleFailure, len(p.failures))
	copy(out, p.failures)
	return out
}

// LastFailure 最近一次失败
func (p *Poller) LastFailure() (models.CycleFailure, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.failures) == 0 {
		return models.CycleFailure{}, false
	}
	return p.failures[len(p.failures)-1], true
}

// Generation 最近一次启动的轮询代数
func (p *Poller) Generation() uint64 {
	return p.generation.Load()
}

// PublishedGeneration 当前快照所属的轮询代数
func (p *Poller) PublishedGeneration() uint64 {
	return p.lastPublished.Load()
}

// State 生命周期状态
func (p *Poller) State() string {
	return p.machine.CurrentState()
}

// Status 控制台状态栏
type Status struct {
	State               string               `json:"state"`
	StateSince          time.Time            `json:"state_since"`
	Generation          uint64               `json:"generation"`
	PublishedGeneration uint64               `json:"published_generation"`
	Stale               bool                 `json:"stale"` // 最近一次轮询失败，显示的是旧数据
	LastFailure         *models.CycleFailure `json:"last_failure,omitempty"`
}

// Status 当前状态
func (p *Poller) Status() Status {
	st := Status{
		State:               p.State(),
		StateSince:          p.machine.Since(),
		Generation:          p.Generation(),
		PublishedGeneration: p.PublishedGeneration(),
	}
	if last, ok := p.LastFailure(); ok {
		st.LastFailure = &last
		st.Stale = last.Generation > st.PublishedGeneration
	}
	return st
}
