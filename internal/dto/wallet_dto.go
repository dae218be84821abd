package dto

import "github.com/haierkeys/onchain-diary-service/pkg/timex"

// WalletConnectRequest connect a keystore account
// 连接钱包请求参数
type WalletConnectRequest struct {
	Address string `json:"address" form:"address" binding:"required,address"` // Account address // 账户地址
}

// WalletSessionDTO connected wallet session
// WalletSessionDTO 钱包会话
type WalletSessionDTO struct {
	Address     string     `json:"address"`         // Account address // 账户地址
	Token       string     `json:"token,omitempty"` // Session token // 会话 Token
	SessionID   string     `json:"sessionId"`       // Session ID // 会话 ID
	ChainID     int64      `json:"chainId"`         // Chain ID // 链 ID
	ConnectedAt timex.Time `json:"connectedAt"`     // Connected time // 连接时间
}

// AccountDTO keystore account
// AccountDTO 钥匙库账户
type AccountDTO struct {
	Address   string `json:"address"`   // Account address // 账户地址
	Label     string `json:"label"`     // Label // 标签
	WatchOnly bool   `json:"watchOnly"` // Cannot sign // 只读账户
	Connected bool   `json:"connected"` // Has an active session // 是否已连接
}
