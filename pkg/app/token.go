package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 默认 Token 签发者
const DefaultTokenIssuer = "onchain-diary-service"

// gin context 中保存会话的 key
const ContextKeyWallet = "wallet_token"

// TokenConfig 定义 Token 管理器的配置
type TokenConfig struct {
	SecretKey string        `yaml:"secret-key"` // JWT 签名密钥
	Expiry    time.Duration `yaml:"expiry"`     // Token 过期时间，默认 7 天
	Issuer    string        `yaml:"issuer"`     // Token 签发者
}

// TokenManager 定义钱包会话 Token 管理接口
type TokenManager interface {
	Generate(address, sessionID, ip string) (string, error)
	Parse(token string) (*WalletEntity, error)
	Validate(token string) error
}

type tokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建一个新的 TokenManager 实例
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

// WalletEntity 钱包会话 Token 中的声明
type WalletEntity struct {
	Address   string `json:"address"`
	SessionID string `json:"sid"`
	IP        string `json:"ip"`
	jwt.RegisteredClaims
}

// Generate 为已连接的钱包账户签发 Token
func (t *tokenManager) Generate(address, sessionID, ip string) (string, error) {
	now := time.Now()
	claims := &WalletEntity{
		Address:   address,
		SessionID: sessionID,
		IP:        ip,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.config.Issuer,
			Subject:   "wallet-session",
			ID:        sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.config.SecretKey))
}

// Parse 解析 Token 并返回会话信息
func (t *tokenManager) Parse(token string) (*WalletEntity, error) {
	claims := &WalletEntity{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.config.SecretKey), nil
	}, jwt.WithIssuer(t.config.Issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func (t *tokenManager) Validate(token string) error {
	_, err := t.Parse(token)
	return err
}

// GetAddress 从请求上下文中取出当前会话的钱包地址
func GetAddress(ctx *gin.Context) (out string) {
	if v, exist := ctx.Get(ContextKeyWallet); exist {
		if entity, ok := v.(*WalletEntity); ok {
			out = entity.Address
		}
	}
	return
}

// GetWallet 从请求上下文中取出会话
func GetWallet(ctx *gin.Context) *WalletEntity {
	if v, exist := ctx.Get(ContextKeyWallet); exist {
		if entity, ok := v.(*WalletEntity); ok {
			return entity
		}
	}
	return nil
}

// SetWallet 将会话写入请求上下文
func SetWallet(ctx *gin.Context, entity *WalletEntity) {
	ctx.Set(ContextKeyWallet, entity)
}
