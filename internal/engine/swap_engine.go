package engine

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"swap-history/internal/history"
	"swap-history/internal/model"
	"swap-history/internal/pair"
	"swap-history/internal/sink"
)

// Stats 引擎运行计数
type Stats struct {
	Received uint64            `json:"received"` // 收到的原始消息
	Admitted uint64            `json:"admitted"` // 写入历史的成交笔数
	Evicted  uint64            `json:"evicted"`
	Dropped  map[string]uint64 `json:"dropped"` // 按原因统计被丢弃的消息
	// SinkDropped 下游队列已满而未能分发的批次
	SinkDropped uint64 `json:"sinkDropped"`
}

// SwapEngine 消费原始推送，过滤出当前交易对的成交写入历史，并转发给下游。
// Run 在单个 Goroutine 中执行，历史缓冲区只有这一个写入方。
// 每个下游都有独立的发送队列，慢下游不会阻塞写入历史。
type SwapEngine struct {
	inChan  <-chan []byte
	pairs   *pair.Store
	history *history.Buffer
	sinks   []*sink.Async
	logger  *zap.Logger

	mu    sync.Mutex
	stats Stats
}

func NewSwapEngine(
	inChan <-chan []byte, // 原始消息通道 (Connector 输出)
	pairs *pair.Store,
	buf *history.Buffer,
	logger *zap.Logger,
	sinks ...sink.Sink, // 由引擎接管，Close 时一并关闭
) *SwapEngine {
	logger = logger.With(zap.String("component", "swap_engine"))

	queued := make([]*sink.Async, 0, len(sinks))
	for _, s := range sinks {
		queued = append(queued, sink.NewAsync(s, sink.DefaultQueueSize, sink.DefaultPublishTimeout, logger))
	}

	return &SwapEngine{
		inChan:  inChan,
		pairs:   pairs,
		history: buf,
		sinks:   queued,
		logger:  logger,
		stats:   Stats{Dropped: make(map[string]uint64)},
	}
}

// Run 处理循环，直到 ctx 取消或输入通道关闭
func (e *SwapEngine) Run(ctx context.Context) error {
	e.logger.Info("Swap engine started, monitoring message stream...")
	defer e.logger.Info("Swap engine stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-e.inChan:
			if !ok {
				return nil
			}
			// 过滤失败不上报，只计数
			_, _ = e.Handle(ctx, raw)
		}
	}
}

// Handle 处理单条消息，返回写入历史的批次或过滤错误
func (e *SwapEngine) Handle(ctx context.Context, raw []byte) (model.Batch, error) {
	batch, err := Filter(raw, e.pairs.Get())

	e.mu.Lock()
	e.stats.Received++
	if err != nil {
		e.stats.Dropped[DropReason(err)]++
		e.mu.Unlock()
		return model.Batch{}, err
	}
	e.mu.Unlock()

	evicted := e.history.Append(batch.Swaps...)

	e.mu.Lock()
	e.stats.Admitted += uint64(len(batch.Swaps))
	e.stats.Evicted += uint64(evicted)
	e.mu.Unlock()

	if len(batch.Swaps) == 0 {
		return batch, nil
	}

	// 只入队，不等待下游
	for _, s := range e.sinks {
		if err := s.Publish(ctx, batch); err != nil {
			e.mu.Lock()
			e.stats.SinkDropped++
			e.mu.Unlock()
			e.logger.Warn("Swap batch not dispatched",
				zap.String("pair", batch.Pair), zap.Int("swaps", len(batch.Swaps)), zap.Error(err))
		}
	}
	return batch, nil
}

// Close 等待下游队列发送完毕并关闭所有下游
func (e *SwapEngine) Close() error {
	var errs []error
	for _, s := range e.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats 返回计数快照
func (e *SwapEngine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := e.stats
	out.Dropped = make(map[string]uint64, len(e.stats.Dropped))
	for k, v := range e.stats.Dropped {
		out.Dropped[k] = v
	}
	return out
}

// DropReason 把过滤错误映射为统计用的原因名
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrPairUnresolved):
		return "pair_unresolved"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrNoEnvelope):
		return "no_envelope"
	case errors.Is(err, ErrStatusNotOK):
		return "status_not_ok"
	case errors.Is(err, ErrPairMismatch):
		return "pair_mismatch"
	}
	return "other"
}
