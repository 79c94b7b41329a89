// Package sink 把通过过滤的成交批次分发给下游 (WebSocket 客户端、Kafka 等)。
package sink

import (
	"context"

	"swap-history/internal/model"
)

// Sink 是下游分发的通用接口
type Sink interface {
	// Publish 分发一个成交批次，批内顺序与推送顺序一致
	Publish(ctx context.Context, batch model.Batch) error

	Close() error
}
