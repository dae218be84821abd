package wallet

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUserRejected 账户拒绝签名，消息与浏览器钱包一致
var ErrUserRejected = errors.New("User rejected the request.")

// Session 已连接的钱包会话
type Session struct {
	ID          string         `json:"id"`
	Address     common.Address `json:"address"`
	IP          string         `json:"ip"`
	ConnectedAt time.Time      `json:"connectedAt"`
}

// Manager 管理账户的连接、断开和签名
// 每个地址同一时间只有一个有效会话，重新连接会使旧 Token 失效
type Manager struct {
	keystore *Keystore
	tokens   app.TokenManager
	logger   *zap.Logger

	mu           sync.RWMutex
	sessions     map[common.Address]*Session
	onDisconnect []func(common.Address)
}

// NewManager 创建会话管理器
func NewManager(ks *Keystore, tokens app.TokenManager, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		keystore: ks,
		tokens:   tokens,
		logger:   log,
		sessions: make(map[common.Address]*Session),
	}
}

// Keystore 账户集合
func (m *Manager) Keystore() *Keystore {
	return m.keystore
}

// OnDisconnect 注册断开回调
func (m *Manager) OnDisconnect(fn func(common.Address)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnect = append(m.onDisconnect, fn)
}

// Connect 连接钥匙库中的账户并签发 Token
func (m *Manager) Connect(address, ip string) (string, *Session, error) {
	if !common.IsHexAddress(address) {
		return "", nil, code.ErrorInvalidAddress
	}
	addr := common.HexToAddress(address)
	if _, ok := m.keystore.Get(addr); !ok {
		return "", nil, code.ErrorAccountNotFound
	}

	s := &Session{
		ID:          uuid.New().String(),
		Address:     addr,
		IP:          ip,
		ConnectedAt: time.Now(),
	}
	token, err := m.tokens.Generate(addr.Hex(), s.ID, ip)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	m.sessions[addr] = s
	m.mu.Unlock()

	m.logger.Info("wallet connected", zap.String(logger.FieldAddress, addr.Hex()))
	return token, s, nil
}

// Disconnect 断开账户，进行中的签名请求将被拒绝
func (m *Manager) Disconnect(addr common.Address) {
	m.mu.Lock()
	_, ok := m.sessions[addr]
	delete(m.sessions, addr)
	hooks := append([]func(common.Address){}, m.onDisconnect...)
	m.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range hooks {
		fn(addr)
	}
	m.logger.Info("wallet disconnected", zap.String(logger.FieldAddress, addr.Hex()))
}

// Session 校验 Token 并返回对应的有效会话
func (m *Manager) Session(token string) (*Session, error) {
	entity, err := m.tokens.Parse(token)
	if err != nil {
		return nil, code.ErrorInvalidUserAuthToken
	}
	if !common.IsHexAddress(entity.Address) {
		return nil, code.ErrorInvalidUserAuthToken
	}
	addr := common.HexToAddress(entity.Address)

	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[addr]
	if !ok || s.ID != entity.SessionID {
		return nil, code.ErrorInvalidUserAuthToken
	}
	cp := *s
	return &cp, nil
}

// Authorize 供 HTTP 中间件与 WebSocket 使用，返回 Token 中的声明
func (m *Manager) Authorize(token string) (*app.WalletEntity, error) {
	if _, err := m.Session(token); err != nil {
		return nil, err
	}
	return m.tokens.Parse(token)
}

// Connected 地址当前是否已连接
func (m *Manager) Connected(addr common.Address) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[addr]
	return ok
}

func (m *Manager) sessionID(addr common.Address) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[addr]
	if !ok {
		return "", false
	}
	return s.ID, true
}

// Signer 返回绑定到当前会话的签名器
func (m *Manager) Signer(addr common.Address) (*Signer, error) {
	sid, ok := m.sessionID(addr)
	if !ok {
		return nil, code.ErrorWalletNotConnected
	}
	account, ok := m.keystore.Get(addr)
	if !ok {
		return nil, code.ErrorAccountNotFound
	}
	return &Signer{manager: m, account: account, sessionID: sid}, nil
}

// Signer 以某个账户签名交易
type Signer struct {
	manager   *Manager
	account   *Account
	sessionID string
}

func (s *Signer) Address() common.Address {
	return s.account.Address
}

// SignTx 会话已断开或被替换、或账户没有私钥时视为用户拒绝
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	sid, ok := s.manager.sessionID(s.account.Address)
	if !ok || sid != s.sessionID || s.account.WatchOnly() {
		return nil, ErrUserRejected
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.account.key)
}
