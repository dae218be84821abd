// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"context"
	"strings"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/middleware"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// GetTraceID 升级连接时请求上的 Trace ID
func GetTraceID(c *pkgapp.WebsocketClient) string {
	if c == nil || c.Ctx == nil {
		return ""
	}
	return middleware.GetTraceIDFromGin(c.Ctx)
}

// clientAddress 已授权连接的钱包地址
func clientAddress(c *pkgapp.WebsocketClient) string {
	if c == nil || c.Wallet == nil {
		return ""
	}
	return c.Wallet.Address
}

// logError 记录错误日志，包含 Trace ID 和地址
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	fields := []zap.Field{
		zap.Error(err),
		zap.String(logger.FieldTraceID, GetTraceID(c)),
		zap.String(logger.FieldAddress, clientAddress(c)),
	}

	// 连接关闭导致的错误降级为 Debug
	if isNetworkClosedError(err) {
		h.App.Logger().Debug(method, fields...)
		return
	}
	h.App.Logger().Error(method, fields...)
}

// respondError 记录错误日志并把错误发送给客户端
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, action string, err error, method string) {
	h.logError(c, method, err)
	var ce *code.Code
	if errors.As(err, &ce) {
		c.ToResponse(ce, action)
		return
	}
	c.ToResponse(code.ErrorServerInternal.WithDetails(err.Error()), action)
}

// isNetworkClosedError 检查是否为网络关闭相关的错误
func isNetworkClosedError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		errors.Is(err, context.Canceled)
}
