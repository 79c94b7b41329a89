package sink

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"swap-history/internal/model"
)

var (
	ErrQueueFull = errors.New("sink queue full")
	ErrClosed    = errors.New("sink closed")
)

const (
	DefaultQueueSize      = 256
	DefaultPublishTimeout = 5 * time.Second
)

// Async 用独立 Goroutine 和缓冲队列包装一个 Sink，Publish 只入队不等待下游
type Async struct {
	sink    Sink
	queue   chan model.Batch
	done    chan struct{}
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ Sink = (*Async)(nil)

func NewAsync(s Sink, size int, timeout time.Duration, logger *zap.Logger) *Async {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	a := &Async{
		sink:    s,
		queue:   make(chan model.Batch, size),
		done:    make(chan struct{}),
		timeout: timeout,
		logger:  logger,
	}
	go a.run()
	return a
}

// Publish 入队；队列满时丢弃该批次并返回 ErrQueueFull
func (a *Async) Publish(_ context.Context, batch model.Batch) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- batch:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// Dropped 因队列满而丢弃的批次数
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

func (a *Async) run() {
	defer close(a.done)
	for batch := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		err := a.sink.Publish(ctx, batch)
		cancel()
		if err != nil {
			a.logger.Warn("Failed to publish swap batch",
				zap.String("pair", batch.Pair), zap.Int("swaps", len(batch.Swaps)), zap.Error(err))
		}
	}
}

// Close 停止接收，等待队列中剩余批次发送完，再关闭下游
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.sink.Close()
}
