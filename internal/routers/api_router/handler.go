// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/middleware"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError 记录 handler 错误，附带 Trace ID
func (h *Handler) logError(ctx context.Context, method string, err error) {
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String(logger.FieldTraceID, middleware.GetTraceID(ctx)),
	)
}

// bindFailed 记录参数校验错误
func (h *Handler) bindFailed(method string, errs pkgapp.ValidErrors) {
	h.App.Logger().Warn(method+".BindAndValid", zap.Error(errs))
}

// address 当前会话的钱包地址
func address(c *gin.Context) string {
	return pkgapp.GetAddress(c)
}
