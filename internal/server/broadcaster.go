package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"swap-history/internal/model"
	"swap-history/internal/sink"
)

const broadcastWriteTimeout = 5 * time.Second

// Broadcaster 把通过过滤的成交批次推送给所有 WebSocket 客户端
type Broadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

var _ sink.Sink = (*Broadcaster)(nil)

func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:   logger.With(zap.String("component", "broadcaster")),
	}
}

// Publish 写给每个客户端，写失败的客户端直接断开。
// 只由一个 Goroutine 调用 (引擎的下游队列)，同一连接不会并发写。
func (b *Broadcaster) Publish(_ context.Context, batch model.Batch) error {
	msg, err := json.Marshal(batch)
	if err != nil {
		return err
	}

	// 写之前复制客户端列表，慢客户端不占用锁
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for c := range b.clients {
		conns = append(conns, c)
	}
	b.mu.Unlock()

	for _, c := range conns {
		_ = c.SetWriteDeadline(time.Now().Add(broadcastWriteTimeout))
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Debug("websocket write error, dropping client", zap.Error(err))
			c.Close()
			b.mu.Lock()
			delete(b.clients, c)
			b.mu.Unlock()
		}
	}
	return nil
}

// Clients 当前连接数
func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Close 断开所有客户端
func (b *Broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.Close()
		delete(b.clients, c)
	}
	return nil
}

// Handler 接受 WebSocket 连接
func (b *Broadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Warn("websocket upgrade error", zap.Error(err))
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// 读循环只用于感知断开
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}
