package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/parkconsole/internal/models"
)

// FailureStore 失败记录持久化
type FailureStore interface {
	Create(ctx context.Context, f *models.CycleFailure) error
}

// FailureJournal 异步写入失败记录，不阻塞轮询
type FailureJournal struct {
	logger  *zap.Logger
	store   FailureStore
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewFailureJournal 创建失败记录器
func NewFailureJournal(logger *zap.Logger, store FailureStore, timeout time.Duration) *FailureJournal {
	return &FailureJournal{
		logger:  logger,
		store:   store,
		timeout: timeout,
	}
}

// Record 作为 FailureListener 使用
func (j *FailureJournal) Record(f models.CycleFailure) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		if err := j.store.Create(ctx, &f); err != nil {
			j.logger.Error("Failed to journal cycle failure",
				zap.Error(err),
				zap.String("failure_id", f.ID),
				zap.Uint64("generation", f.Generation))
		}
	}()
}

// Wait 等待写入完成
func (j *FailureJournal) Wait() {
	j.wg.Wait()
}
