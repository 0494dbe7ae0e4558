package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client 代表一个连接到 Hub 的本地界面。
type Client struct {
	id       string
	deviceID string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte // 用于向此客户端发送消息的缓冲通道
}

// NewClient 创建一个新的 Client 实例
func NewClient(hub *Hub, conn *websocket.Conn, deviceID string) *Client {
	return &Client{
		id:       uuid.NewString(),
		deviceID: deviceID,
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 64),
	}
}

// Run 启动客户端的读写 goroutine
func (c *Client) Run() {
	go c.writeViews()
	go c.readIntents()
}

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"client_id": c.id, "device_id": c.deviceID})
}

// readIntents 把界面发来的意图帧交给 Hub，连接断开时注销自己。
func (c *Client) readIntents() {
	defer c.leave()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend("")
	c.conn.SetPongHandler(extend)

	for {
		kind, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("View connection dropped")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		if !c.hub.QueueMessage(HubMessage{Type: "intent", Client: c, RawData: frame}) {
			c.sendError("busy, try again")
		}
	}
}

func (c *Client) leave() {
	select {
	case c.hub.messageChan <- HubMessage{Type: "unregister", Client: c}:
	case <-time.After(time.Second):
		c.logCtx().Warn("Hub did not accept unregister in time")
	}
	c.conn.Close()
	c.logCtx().Info("View client left")
}

// writeViews 推送视图帧，空闲时按 pingPeriod 发送 ping。
// send 被 Hub 关闭后发送 close 帧并退出。
func (c *Client) writeViews() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		var err error
		select {
		case frame, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			err = c.write(websocket.TextMessage, frame)
		case <-ticker.C:
			err = c.write(websocket.PingMessage, nil)
		}
		if err != nil {
			c.logCtx().WithError(err).Warn("Failed to write to view connection")
			return
		}
	}
}

func (c *Client) write(kind int, payload []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, payload)
}

// sendError 把拒绝原因单独发给这个客户端，通道满时丢弃。
func (c *Client) sendError(message string) {
	payload, err := json.Marshal(map[string]string{"type": MessageTypeError, "message": message})
	if err != nil {
		return
	}
	defer func() {
		// send 可能已被 Hub 关闭
		if r := recover(); r != nil {
			c.logCtx().Debug("Client gone before error could be delivered")
		}
	}()
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) ID() string       { return c.id }
func (c *Client) DeviceID() string { return c.deviceID }
func (c *Client) CloseConn()       { c.conn.Close() }
