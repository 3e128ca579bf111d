package sync

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// WriteQueue 有界异步写入队列。Submit 在在途数达到上限时阻塞，
// 保证任意时刻的在途写入不超过上限；Drain 等待全部在途写入结束。
// 单次写入失败只记录不中止，也不影响其他在途写入。
type WriteQueue struct {
	sem      *semaphore.Weighted
	capacity int64
	inflight atomic.Int64
	onError  func(label string, err error)
}

func NewWriteQueue(maxInflight int) *WriteQueue {
	if maxInflight <= 0 {
		maxInflight = DefaultMaxInflightWrites
	}
	return &WriteQueue{
		sem:      semaphore.NewWeighted(int64(maxInflight)),
		capacity: int64(maxInflight),
	}
}

// OnError 注册写入失败回调（审计记录、事件发布）
func (q *WriteQueue) OnError(fn func(label string, err error)) {
	q.onError = fn
}

// Submit 提交一次异步写入。队列满时阻塞等待空位。
func (q *WriteQueue) Submit(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	q.inflight.Add(1)
	go func() {
		defer func() {
			q.inflight.Add(-1)
			q.sem.Release(1)
		}()
		if err := fn(ctx); err != nil {
			zap.S().Errorf("写入 %s 失败: %v", label, err)
			if q.onError != nil {
				q.onError(label, err)
			}
		}
	}()
	return nil
}

// Drain 等待所有在途写入结束
func (q *WriteQueue) Drain(ctx context.Context) error {
	if err := q.sem.Acquire(ctx, q.capacity); err != nil {
		return err
	}
	q.sem.Release(q.capacity)
	return nil
}

// Inflight 当前在途写入数（监控用）
func (q *WriteQueue) Inflight() int64 {
	return q.inflight.Load()
}
