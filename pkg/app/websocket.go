package app

import (
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/preppal-study-sync/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second
)

// WebSocketMessage 客户端消息，线上格式为 "Type|json"
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient 一个 WebSocket 连接及其所属档案
type WebsocketClient struct {
	conn    *gws.Conn
	done    chan struct{}
	logger  *zap.Logger
	Ctx     *gin.Context
	Profile string

	mu      sync.Mutex
	closers []func()
	closed  bool
}

// OnClose 注册连接关闭时执行的清理函数；连接已关闭时立即执行
func (c *WebsocketClient) OnClose(fn func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fn()
		return
	}
	c.closers = append(c.closers, fn)
	c.mu.Unlock()
}

func (c *WebsocketClient) release() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	close(c.done)
	for _, fn := range closers {
		fn()
	}
}

// PingLoop 定期发送 Ping
func (c *WebsocketClient) PingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				c.logger.Debug("websocket ping failed", zap.String("profile", c.Profile), zap.Error(err))
				return
			}
		}
	}
}

// Send 推送一条 "action|json" 消息
func (c *WebsocketClient) Send(action string, data any) error {
	payload, err := sonic.Marshal(data)
	if err != nil {
		return err
	}
	if action != "" {
		payload = append([]byte(action+"|"), payload...)
	}
	return c.conn.WriteMessage(gws.OpcodeText, payload)
}

// ToResponse 以 Res 结构回复结果
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action ...string) {
	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	content := Res{
		Code:    codeObj.Code(),
		Status:  codeObj.Status(),
		Message: codeObj.MsgIn(Lang(c.Ctx)),
		Data:    codeObj.Data(),
	}
	if codeObj.HaveDetails() {
		content.Details = strings.Join(codeObj.Details(), ",")
	}
	if err := c.Send(actionType, content); err != nil {
		c.logger.Debug("websocket write failed", zap.String("profile", c.Profile), zap.Error(err))
	}
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer 实现 gws.Event，按动作名分发客户端消息
type WebsocketServer struct {
	handlers  map[string]func(*WebsocketClient, *WebSocketMessage)
	onConnect func(*WebsocketClient)
	clients   ConnStorage
	mu        sync.Mutex
	up        *gws.Upgrader
	config    WebsocketServerConfig
	logger    *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig, lg *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	w := &WebsocketServer{
		handlers: make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:  make(ConnStorage),
		config:   c,
		logger:   lg,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Use 注册动作处理器
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// OnConnect 连接建立后的回调，用于订阅推送
func (w *WebsocketServer) OnConnect(fn func(*WebsocketClient)) {
	w.onConnect = fn
}

// Run 升级连接，profile 决定连接所属档案
func (w *WebsocketServer) Run(profile func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &WebsocketClient{
			conn:    socket,
			done:    make(chan struct{}),
			logger:  w.logger,
			Ctx:     c.Copy(),
			Profile: profile(c),
		}
		w.AddClient(client)
		if w.onConnect != nil {
			w.onConnect(client)
		}
		go client.PingLoop(w.config.PingInterval)
		go socket.ReadLoop()
	}
}

func (w *WebsocketServer) GetClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clients[conn]
}

func (w *WebsocketServer) AddClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) RemoveClient(conn *gws.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.clients, conn)
}

// Count 当前连接数
func (w *WebsocketServer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.clients)
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c := w.GetClient(conn)
	w.RemoveClient(conn)
	if c != nil {
		c.release()
		w.logger.Debug("websocket client leave", zap.String("profile", c.Profile), zap.Int("count", w.Count()))
	}
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	messageStr := message.Data.String()
	if messageStr == "close" {
		conn.WriteClose(1000, []byte("ClientClose"))
		return
	}
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	c := w.GetClient(conn)
	if c == nil {
		return
	}

	msg := WebSocketMessage{Type: messageStr}
	if i := strings.Index(messageStr, "|"); i != -1 {
		msg.Type = messageStr[:i]
		msg.Data = []byte(messageStr[i+1:])
	}

	handler, exists := w.handlers[msg.Type]
	if !exists {
		w.logger.Debug("websocket unknown message type", zap.String("type", msg.Type))
		c.ToResponse(code.ErrorInvalidParams.WithDetails("unknown message type "+msg.Type), msg.Type)
		return
	}
	handler(c, &msg)
}
