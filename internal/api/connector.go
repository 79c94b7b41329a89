package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventSubscribe = "pusher:subscribe"
	EventPing      = "pusher:ping"
	EventPong      = "pusher:pong"
)

// PusherFrame Pusher 协议的通用帧
type PusherFrame struct {
	Event   string      `json:"event"`
	Data    interface{} `json:"data"`
	Channel string      `json:"channel,omitempty"`
}

// SubscribeData 订阅请求的 data，公共频道 auth 为空字符串
type SubscribeData struct {
	Auth    string `json:"auth"`
	Channel string `json:"channel"`
}

// SubscribeFrame 构造订阅帧
// {"event":"pusher:subscribe","data":{"auth":"","channel":"live_transactions"}}
func SubscribeFrame(channel, auth string) PusherFrame {
	return PusherFrame{
		Event: EventSubscribe,
		Data:  SubscribeData{Auth: auth, Channel: channel},
	}
}

// ConnectorConfig 连接器配置
type ConnectorConfig struct {
	URL               string
	Channel           string
	Auth              string
	ReconnectDelay    time.Duration // 首次重连等待
	MaxReconnectDelay time.Duration // 指数退避上限
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	ReadTimeout       time.Duration // 超过该时长没有任何帧则断开重连，需大于服务端活动超时 (120s)
	PingInterval      time.Duration // 主动发送 pusher:ping 的间隔
	BufferSize        int           // 输出通道缓冲
}

func (cfg *ConnectorConfig) setDefaults() {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = 30 * time.Second
	}
	if cfg.MaxReconnectDelay < cfg.ReconnectDelay {
		cfg.MaxReconnectDelay = cfg.ReconnectDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 150 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 60 * time.Second
	}
	if cfg.BufferSize <= 0 {
		// 确保通道有足够的缓冲区来应对高频数据
		cfg.BufferSize = 2048
	}
}

// Connector 负责连接推送服务、订阅频道并把原始消息按顺序输出
type Connector struct {
	cfg     ConnectorConfig
	dialer  *websocket.Dialer
	msgChan chan []byte
	logger  *zap.Logger

	writeMu       sync.Mutex // gorilla 连接只允许一个并发写
	subscriptions atomic.Int64
}

func NewConnector(cfg ConnectorConfig, logger *zap.Logger) *Connector {
	cfg.setDefaults()

	logger = logger.With(zap.String("component", "connector"))
	logger.Info("Connector initialized", zap.String("URL", cfg.URL), zap.String("Channel", cfg.Channel))

	return &Connector{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		msgChan: make(chan []byte, cfg.BufferSize),
		logger:  logger,
	}
}

// Messages 原始消息输出通道
func (c *Connector) Messages() <-chan []byte {
	return c.msgChan
}

// Subscriptions 已发送的订阅帧数量 (每次建立连接发送一次)
func (c *Connector) Subscriptions() int64 {
	return c.subscriptions.Load()
}

// Start 建立连接并持续读取，断线后按指数退避重连，直到 ctx 取消
func (c *Connector) Start(ctx context.Context) error {
	c.logger.Info("Starting Pusher WS connection...", zap.String("URL", c.cfg.URL))

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.ReconnectDelay
	b.MaxInterval = c.cfg.MaxReconnectDelay
	b.MaxElapsedTime = 0 // 永不放弃
	b.Reset()

	for {
		err := c.session(ctx, b)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := b.NextBackOff()
		c.logger.Error("WS session ended, attempting to reconnect...",
			zap.Error(err), zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// session 一次完整的连接生命周期：拨号 -> 订阅 -> 读循环
func (c *Connector) session(ctx context.Context, b backoff.BackOff) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (HTTP status %s)", c.cfg.URL, err, resp.Status)
		}
		return fmt.Errorf("dial %s: %w", c.cfg.URL, err)
	}
	defer conn.Close()

	// ctx 取消时关闭连接，让 ReadMessage 返回
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	// 每个新连接都要重新订阅
	if err := c.writeJSON(conn, SubscribeFrame(c.cfg.Channel, c.cfg.Auth)); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	c.subscriptions.Add(1)
	b.Reset()
	c.logger.Info("Subscribed to channel", zap.String("Channel", c.cfg.Channel))

	go c.pingLoop(conn, stop)

	return c.readLoop(ctx, conn)
}

// readLoop 持续读取 WS 消息，按到达顺序转发
// 每收到一帧刷新读超时，半开连接会在 ReadTimeout 后报错并触发重连
func (c *Connector) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		switch controlEvent(message) {
		case EventPing:
			if err := c.writeJSON(conn, PusherFrame{Event: EventPong, Data: struct{}{}}); err != nil {
				return fmt.Errorf("send pong: %w", err)
			}
			continue
		case EventPong:
			// 对主动 ping 的应答，只用于刷新读超时
			continue
		}

		// 阻塞发送：不丢消息，顺序与到达顺序一致
		select {
		case c.msgChan <- message:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pingLoop 定期发送 pusher:ping，写失败时关闭连接让读循环退出
func (c *Connector) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.writeJSON(conn, PusherFrame{Event: EventPing, Data: struct{}{}}); err != nil {
				c.logger.Warn("Failed to send ping", zap.Error(err))
				conn.Close()
				return
			}
		}
	}
}

func (c *Connector) writeJSON(conn *websocket.Conn, v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// controlEvent 返回 Pusher 心跳事件名，其他帧返回空串
func controlEvent(message []byte) string {
	var frame struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(message, &frame); err != nil {
		return ""
	}
	switch frame.Event {
	case EventPing, EventPong:
		return frame.Event
	}
	return ""
}
