package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 控制台推送的消息类型
const (
	MsgTypeInit       = "init"        // 连接时的当前视图
	MsgTypeViewUpdate = "view_update" // 新快照
	MsgTypeScrollLogs = "scroll_logs" // 日志面板滚动到底部
	MsgTypeCycleError = "cycle_error" // 轮询失败
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer    = 64
	outboxBuffer  = 256
	maxReadFrames = 512
)

// Message 推送给浏览器的消息
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client 一个浏览器连接
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub 控制台连接管理，所有 clients 的增删都在 Run 中完成
type Hub struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	clients map[*Client]struct{}

	outbox     chan []byte
	register   chan *Client
	unregister chan *Client

	snapshotView func() interface{}
}

// NewHub 创建 Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]struct{}),
		outbox:     make(chan []byte, outboxBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// SetInitDataProvider 新连接收到的 init 消息内容
func (h *Hub) SetInitDataProvider(provider func() interface{}) {
	h.snapshotView = provider
}

// Run 处理连接注册、注销与消息分发
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case payload := <-h.outbox:
			h.fanOut(payload)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client connected", zap.Int("total_clients", total))
	h.greet(c)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("WebSocket client disconnected", zap.Int("total_clients", total))
}

// fanOut 分发消息，缓冲区满的连接直接断开
func (h *Hub) fanOut(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.logger.Warn("Dropping slow WebSocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// greet 发送当前视图给新连接
func (h *Hub) greet(c *Client) {
	if h.snapshotView == nil {
		return
	}

	payload, err := encode(MsgTypeInit, h.snapshotView())
	if err != nil {
		h.logger.Error("Failed to marshal init data", zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		h.logger.Warn("Failed to send init data, client buffer full")
	}
}

// BroadcastMessage 推送消息给所有连接。不阻塞调用方，Hub 积压时丢弃。
func (h *Hub) BroadcastMessage(msgType string, data interface{}) {
	payload, err := encode(msgType, data)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err), zap.String("type", msgType))
		return
	}

	select {
	case h.outbox <- payload:
	default:
		h.logger.Warn("WebSocket outbox full, dropping message", zap.String("type", msgType))
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(msgType string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: msgType, Data: data})
}

// NewClient 创建连接
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Register 加入 Hub
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump 只处理 pong 与关闭，浏览器发来的内容被忽略
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxReadFrames)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// WritePump 写出推送消息并定期 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
