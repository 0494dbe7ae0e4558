package wsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"geek-ludo/internal/dto"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// 服务端帧 (含提交的代码) 的最大尺寸
	maxMessageSize = 1 << 20

	sendBuffer = 64
)

// ErrNotConnected 表示当前没有可用的连接
var ErrNotConnected = errors.New("wsclient: not connected")

// ErrSendQueueFull 表示发送队列已满
var ErrSendQueueFull = errors.New("wsclient: send queue full")

// Handler 接收连接事件和入站帧。所有回调都来自同一个读 goroutine，保持到达顺序。
type Handler interface {
	Connected()
	HandleFrame(raw []byte)
	Disconnected()
}

// Client 维护到游戏服务端的单条 WebSocket 连接，断开后自动重连。
type Client struct {
	url    string
	header http.Header
	dialer *websocket.Dialer

	minBackoff time.Duration
	maxBackoff time.Duration

	mu        sync.Mutex
	connected bool
	send      chan []byte
	reconnect chan struct{}
}

// NewClient 创建 Client 实例。调用 Run 后才会开始拨号。
func NewClient(url string) *Client {
	if url == "" {
		panic("server URL cannot be empty for wsclient")
	}
	return &Client{
		url:        url,
		header:     http.Header{},
		dialer:     &websocket.Dialer{HandshakeTimeout: 10 * time.Second, Proxy: http.ProxyFromEnvironment},
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 10 * time.Second,
		send:       make(chan []byte, sendBuffer),
		reconnect:  make(chan struct{}, 1),
	}
}

// SetBackoff 调整重连间隔的上下限
func (c *Client) SetBackoff(min, max time.Duration) {
	if min > 0 {
		c.minBackoff = min
	}
	if max >= c.minBackoff {
		c.maxBackoff = max
	}
}

// IsConnected 表示当前是否有可用连接
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Send 实现 service.Transport。帧写入发送队列后立即返回。
func (c *Client) Send(intent dto.Intent) error {
	frame, err := intent.Encode()
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return ErrNotConnected
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Reconnect 实现 service.Transport。关闭当前连接，Run 循环会重新拨号。
func (c *Client) Reconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return
	}
	select {
	case c.reconnect <- struct{}{}:
	default:
	}
}

// Run 拨号并服务连接，断开后按指数退避重连，直到 ctx 取消。应在单独的 goroutine 中运行。
func (c *Client) Run(ctx context.Context, h Handler) {
	if h == nil {
		panic("Handler cannot be nil for wsclient")
	}
	logCtx := logrus.WithFields(logrus.Fields{"component": "wsclient", "url": c.url})
	backoff := c.minBackoff
	for {
		conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logCtx.WithError(err).Warnf("Dial failed, retrying in %s", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
			continue
		}
		backoff = c.minBackoff
		logCtx.Info("Connected to game server")
		c.serve(ctx, conn, h)
		if ctx.Err() != nil {
			logCtx.Info("wsclient stopped")
			return
		}
		logCtx.Info("Connection closed, redialling")
	}
}

// serve 在一条连接的生命周期内运行读写泵，连接断开时返回。
func (c *Client) serve(ctx context.Context, conn *websocket.Conn, h Handler) {
	c.mu.Lock()
	c.connected = true
	// 丢弃上一条连接遗留的重连信号
	select {
	case <-c.reconnect:
	default:
	}
	c.mu.Unlock()
	h.Connected()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writePump(conn, done)
	}()
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
		case <-c.reconnect:
			logrus.WithField("component", "wsclient").Info("Reconnect requested, dropping connection")
		case <-done:
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		conn.Close()
	}()

	c.readPump(conn, h)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	close(done)
	wg.Wait()
	conn.Close()
	c.drain()
	h.Disconnected()
}

// readPump 把服务端帧按顺序交给 Handler
func (c *Client) readPump(conn *websocket.Conn, h Handler) {
	logCtx := logrus.WithField("component", "wsclient")
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				logCtx.WithError(err).Debug("WebSocket connection closed")
			}
			return
		}
		if messageType != websocket.TextMessage {
			logCtx.Debugf("Ignoring non-text message type: %d", messageType)
			continue
		}
		logCtx.Debugf("Received frame (size: %d)", len(message))
		h.HandleFrame(message)
	}
}

// writePump 把发送队列中的帧写入连接，并定期发送 Ping
func (c *Client) writePump(conn *websocket.Conn, done <-chan struct{}) {
	logCtx := logrus.WithField("component", "wsclient")
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case frame := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logCtx.WithError(err).Warn("Failed to write frame")
				conn.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping")
				conn.Close()
				return
			}
		}
	}
}

// drain 丢弃断线前未发出的帧，它们属于已经失效的连接
func (c *Client) drain() {
	for {
		select {
		case frame := <-c.send:
			logrus.WithField("component", "wsclient").Debugf("Dropping unsent frame (size: %d)", len(frame))
		default:
			return
		}
	}
}

func (c *Client) String() string { return fmt.Sprintf("wsclient(%s)", c.url) }
