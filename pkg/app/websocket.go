package app

import (
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// ActionAuthorization 客户端连接后发送的第一条消息：Authorization|<token>
	ActionAuthorization = "Authorization"
)

// WebSocketMessage 客户端消息，线上格式为 "<Type>|<Data>"
type WebSocketMessage struct {
	Type string `json:"type"`
	Data []byte `json:"data"`
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
	// ReturnSuccess 是否回复不带数据、不带 action 的成功结果
	ReturnSuccess bool
}

// Authorizer 校验 Authorization 消息中的 Token，返回对应的钱包会话
type Authorizer func(token string) (*WalletEntity, error)

// WebsocketClient 单个 WebSocket 连接及其状态
type WebsocketClient struct {
	conn      *gws.Conn
	done      chan struct{}
	closeOnce sync.Once
	Ctx       *gin.Context
	Wallet    *WalletEntity

	returnSuccess bool
}

func (c *WebsocketClient) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// PingLoop 定期发送 Ping 消息
func (c *WebsocketClient) PingLoop(interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				logger.Warn("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

// ToResponse 将结果序列化后发送给当前客户端，action 不为空时加上 "action|" 前缀
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action ...string) {
	var actionType string
	if len(action) > 0 {
		actionType = action[0]
	}
	if !shouldReply(c.returnSuccess, actionType, codeObj) {
		return
	}
	_ = c.conn.WriteMessage(gws.OpcodeText, encodeFrame(actionType, NewRes(codeObj)))
}

// shouldReply 失败、带数据或带 action 的结果总是回复
func shouldReply(returnSuccess bool, actionType string, codeObj *code.Code) bool {
	return returnSuccess || actionType != "" || !codeObj.Status() || codeObj.HaveData()
}

func encodeFrame(actionType string, content any) []byte {
	payload, _ := sonic.Marshal(content)
	if actionType == "" {
		return payload
	}
	frame := make([]byte, 0, len(actionType)+1+len(payload))
	frame = append(frame, actionType...)
	frame = append(frame, '|')
	return append(frame, payload...)
}

// ------------------------------------> WebsocketServer

type ConnStorage = map[*gws.Conn]*WebsocketClient

// WebsocketServer 按钱包地址分组管理连接，业务层通过 Push 推送事件
type WebsocketServer struct {
	handlers       map[string]func(*WebsocketClient, *WebSocketMessage)
	authorizer     Authorizer
	clients        ConnStorage
	addressClients map[string]ConnStorage
	mu             sync.RWMutex
	up             *gws.Upgrader
	config         WebsocketServerConfig
	logger         *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig, authorizer Authorizer, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval <= 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait <= 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WebsocketServer{
		handlers:       make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		authorizer:     authorizer,
		clients:        make(ConnStorage),
		addressClients: make(map[string]ConnStorage),
		config:         c,
		logger:         logger,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Run gin 处理函数，升级连接后启动读循环
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Error("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &WebsocketClient{
			conn:          socket,
			done:          make(chan struct{}),
			Ctx:           c.Copy(),
			returnSuccess: w.config.ReturnSuccess,
		}
		w.addClient(client)
		go socket.ReadLoop()
	}
}

// Use 注册客户端消息处理函数
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// Push 向某个地址的所有已授权连接推送消息，返回送达的连接数
func (w *WebsocketServer) Push(address string, action string, codeObj *code.Code) int {
	w.mu.RLock()
	targets := make([]*gws.Conn, 0, len(w.addressClients[address]))
	for conn := range w.addressClients[address] {
		targets = append(targets, conn)
	}
	w.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}

	b := gws.NewBroadcaster(gws.OpcodeText, encodeFrame(action, NewRes(codeObj)))
	defer b.Close()

	sent := 0
	for _, conn := range targets {
		if err := b.Broadcast(conn); err == nil {
			sent++
		}
	}
	return sent
}

// ClientCount 某个地址的已授权连接数
func (w *WebsocketServer) ClientCount(address string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.addressClients[address])
}

func (w *WebsocketServer) authorization(c *WebsocketClient, msg *WebSocketMessage) {
	var (
		wallet *WalletEntity
		err    error
	)
	if w.authorizer == nil {
		err = code.ErrorInvalidUserAuthToken
	} else {
		wallet, err = w.authorizer(string(msg.Data))
	}
	if err != nil {
		w.logger.Warn("websocket authorization failed", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, ActionAuthorization)
		_ = c.conn.WriteClose(1000, []byte("AuthorizationFailed"))
		return
	}

	c.Wallet = wallet
	w.addAddressClient(c)
	c.ToResponse(code.Success, ActionAuthorization)

	w.logger.Info("websocket client authorized",
		zap.String("address", wallet.Address),
		zap.Int("count", w.ClientCount(wallet.Address)))

	go c.PingLoop(w.config.PingInterval, w.logger)
}

func (w *WebsocketServer) getClient(conn *gws.Conn) *WebsocketClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clients[conn]
}

func (w *WebsocketServer) addClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) addAddressClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.addressClients[c.Wallet.Address] == nil {
		w.addressClients[c.Wallet.Address] = make(ConnStorage)
	}
	w.addressClients[c.Wallet.Address][c.conn] = c
}

func (w *WebsocketServer) removeClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.clients[conn]
	delete(w.clients, conn)
	if c != nil && c.Wallet != nil {
		delete(w.addressClients[c.Wallet.Address], conn)
		if len(w.addressClients[c.Wallet.Address]) == 0 {
			delete(w.addressClients, c.Wallet.Address)
		}
	}
	return c
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	c := w.removeClient(conn)
	if c == nil {
		return
	}
	c.close()
	if c.Wallet != nil {
		w.logger.Info("websocket client leave", zap.String("address", c.Wallet.Address))
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
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	raw := message.Data.String()
	if raw == "close" {
		_ = conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.getClient(conn)
	if c == nil {
		return
	}

	index := strings.Index(raw, "|")
	if index == -1 {
		w.logger.Warn("websocket illegal message", zap.String("message", raw))
		return
	}
	msg := WebSocketMessage{Type: raw[:index], Data: []byte(raw[index+1:])}

	if msg.Type == ActionAuthorization {
		w.authorization(c, &msg)
		return
	}

	if c.Wallet == nil {
		c.ToResponse(code.ErrorNotUserAuthToken, msg.Type)
		return
	}

	handler, ok := w.handlers[msg.Type]
	if !ok {
		w.logger.Warn("websocket unknown message type", zap.String("type", msg.Type))
		return
	}
	handler(c, &msg)
}
