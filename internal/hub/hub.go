package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"geek-ludo/internal/render"
)

// 界面连接的读写时限。ping 周期必须短于 pongWait，否则空闲连接会被误判为断开
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024 // 意图帧可能包含整段代码
)

// 出站消息类型
const (
	MessageTypeView  = "view"
	MessageTypeError = "error"
)

// Dispatcher 处理界面发来的意图帧，由 service.GameService 实现。
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte) error
}

// HubMessage 定义了在 Hub 内部通道传递的消息类型
type HubMessage struct {
	Type    string  // "register", "unregister", "intent", "broadcast"
	Client  *Client // 用于 register/unregister/intent
	RawData []byte  // intent 的原始帧或 broadcast 的内容
}

// Hub 维护连接到本地界面的客户端，把视图推送给它们，并把它们的意图交给 Dispatcher。
type Hub struct {
	// 内部通道，处理所有来自 Client 和 Observer 的事件
	messageChan chan HubMessage
	// 意图按到达顺序逐个处理
	intentChan chan HubMessage

	clients   map[*Client]bool
	clientsMu sync.RWMutex

	// 最近一次视图，新客户端注册后立即收到
	latestMu sync.RWMutex
	latest   []byte

	dispatcher Dispatcher
	done       chan struct{}
}

// NewHub 创建并返回一个新的 Hub 实例
func NewHub(dispatcher Dispatcher) *Hub {
	if dispatcher == nil {
		panic("Dispatcher cannot be nil for Hub")
	}
	return &Hub{
		messageChan: make(chan HubMessage, 512),
		intentChan:  make(chan HubMessage, 64),
		clients:     make(map[*Client]bool),
		dispatcher:  dispatcher,
		done:        make(chan struct{}),
	}
}

// Run 启动 Hub 的主事件处理循环，直到 ctx 取消。
// 它应该在一个单独的 goroutine 中运行。
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	go h.processIntents(ctx)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			log.Info("Hub is shutting down...")
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			case "intent":
				select {
				case h.intentChan <- msg:
				default:
					log.WithField("client_id", msg.Client.ID()).Warn("Intent queue full, dropping intent")
					msg.Client.sendError("busy, try again")
				}
			case "broadcast":
				h.broadcast(msg.RawData)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

// Done 在 Run 返回后关闭
func (h *Hub) Done() <-chan struct{} { return h.done }

// processIntents 顺序处理意图，保证同一界面的操作不会乱序。
func (h *Hub) processIntents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.intentChan:
			h.handleIntent(ctx, msg)
		}
	}
}

func (h *Hub) handleIntent(ctx context.Context, msg HubMessage) {
	logCtx := logrus.WithFields(logrus.Fields{
		"client_id": msg.Client.ID(),
		"device_id": msg.Client.DeviceID(),
		"operation": "handleIntent",
	})
	logCtx.Debugf("Processing intent (data size: %d)", len(msg.RawData))

	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := h.dispatcher.Dispatch(dctx, msg.RawData); err != nil {
		logCtx.WithError(err).Info("Intent rejected")
		msg.Client.sendError(err.Error())
	}
}

// registerClient 登记新界面，并立即补发最近一次视图
func (h *Hub) registerClient(client *Client) {
	h.clientsMu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.clientsMu.Unlock()
	logrus.WithFields(logrus.Fields{"client_id": client.ID(), "clients": count}).Info("View client registered")

	h.latestMu.RLock()
	initial := h.latest
	h.latestMu.RUnlock()
	if initial != nil {
		offer(client, initial)
	}
}

// unregisterClient 关闭 send 通道，writeViews 随之退出。重复注销是无害的。
func (h *Hub) unregisterClient(client *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.clientsMu.Unlock()
	if ok {
		logrus.WithField("client_id", client.ID()).Info("View client unregistered")
	}
}

func (h *Hub) closeAll() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// broadcast 向所有界面推送同一帧。慢客户端会错过中间视图，但每一帧视图都是完整的。
func (h *Hub) broadcast(frame []byte) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	for client := range h.clients {
		offer(client, frame)
	}
}

// offer 非阻塞地投递到客户端的发送队列
func offer(client *Client, frame []byte) bool {
	select {
	case client.send <- frame:
		return true
	default:
		logrus.WithField("client_id", client.ID()).Warn("View client send queue full, frame skipped")
		return false
	}
}

// Render 实现 render.Sink。在事件循环中调用，不能阻塞。
func (h *Hub) Render(v render.View) {
	payload, err := json.Marshal(struct {
		Type string      `json:"type"`
		View render.View `json:"view"`
	}{Type: MessageTypeView, View: v})
	if err != nil {
		logrus.WithError(err).Error("Failed to marshal view message")
		return
	}
	h.latestMu.Lock()
	h.latest = payload
	h.latestMu.Unlock()
	h.QueueMessage(HubMessage{Type: "broadcast", RawData: payload})
}

// ClientCount 返回当前连接数
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// QueueMessage 将消息放入 Hub 的处理队列 (非阻塞)。
// 返回 true 如果消息成功入队，false 如果队列已满。
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}
