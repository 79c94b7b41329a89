package sink

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"swap-history/internal/model"
)

// KafkaConfig Kafka 连接配置
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration // 攒批最长等待，kafka-go 默认 1s
	WriteTimeout time.Duration
}

// messageWriter 便于测试替换 kafka.Writer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink 把每笔成交作为一条 JSON 消息写入 Kafka，key 为交易对地址 (小写)
type KafkaSink struct {
	writer messageWriter
}

var _ Sink = (*KafkaSink)(nil)

func NewKafkaSink(cfg KafkaConfig) *KafkaSink {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // 同一交易对落在同一分区，保证顺序
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &KafkaSink{writer: writer}
}

// swapRecord Kafka 中的消息体
type swapRecord struct {
	Pair string `json:"pair"`
	model.SwapMessage
}

func (k *KafkaSink) Publish(ctx context.Context, batch model.Batch) error {
	key := []byte(strings.ToLower(batch.Pair))
	now := time.Now()

	msgs := make([]kafka.Message, 0, len(batch.Swaps))
	for _, s := range batch.Swaps {
		data, err := json.Marshal(swapRecord{Pair: batch.Pair, SwapMessage: s})
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: key, Value: data, Time: now})
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}
