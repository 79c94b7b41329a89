package sink

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swap-history/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink_PublishOneMessagePerSwap(t *testing.T) {
	w := &fakeWriter{}
	k := &KafkaSink{writer: w}

	batch := model.Batch{
		ChainID: 1,
		Pair:    "0xABC",
		Swaps: []model.SwapMessage{
			{ChainID: 1, TxHash: "s1", Side: model.SideBuy, Price: 2.5},
			{ChainID: 1, TxHash: "s2", Side: model.SideSell, Price: 2.4},
		},
	}
	require.NoError(t, k.Publish(context.Background(), batch))
	require.Len(t, w.msgs, 2)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &first))
	assert.Equal(t, "0xabc", string(w.msgs[0].Key))
	assert.Equal(t, "0xABC", first["pair"])
	assert.Equal(t, "s1", first["txHash"])
	assert.NotContains(t, first, "priceBase")

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &second))
	assert.Equal(t, "s2", second["txHash"])

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaSink(t *testing.T) {
	k := NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "swaps"})
	writer, ok := k.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "swaps", writer.Topic)
	assert.Equal(t, 10*time.Millisecond, writer.BatchTimeout)
	assert.Equal(t, 5*time.Second, writer.WriteTimeout)

	k = NewKafkaSink(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "swaps", BatchTimeout: 50 * time.Millisecond})
	writer = k.writer.(*kafka.Writer)
	assert.Equal(t, 50*time.Millisecond, writer.BatchTimeout)
}
