package websocket_router

import (
	"context"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/google/uuid"
)

// 客户端请求与服务端推送的消息类型
const (
	ActionDraftGet      = "DraftGet"
	ActionDiaryToday    = "DiaryToday"
	ActionAttemptGet    = "AttemptGet"
	ActionAttemptUpdate = "AttemptUpdate"
	ActionDiaryWritten  = "DiaryWritten"
	ActionDisconnected  = "WalletDisconnected"
)

// DiaryWSHandler 日记 WebSocket 处理器
type DiaryWSHandler struct {
	*WSHandler
}

// NewDiaryWSHandler 创建 DiaryWSHandler 实例
func NewDiaryWSHandler(a *app.App) *DiaryWSHandler {
	return &DiaryWSHandler{WSHandler: NewWSHandler(a)}
}

// requestContext 消息处理使用的 context
// 升级请求返回后其 context 已取消，这里按默认超时新建
func (h *DiaryWSHandler) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(h.App.Config().App.DefaultContextTimeout)*time.Second)
}

// DraftGet 返回当前草稿
func (h *DiaryWSHandler) DraftGet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	c.ToResponse(code.Success.WithData(h.App.ComposerService.View(clientAddress(c))), ActionDraftGet)
}

// DiaryToday 返回今天的日记和剩余次数
func (h *DiaryWSHandler) DiaryToday(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	ctx, cancel := h.requestContext()
	defer cancel()

	out, err := h.App.DiaryService.Today(ctx, clientAddress(c))
	if err != nil {
		h.respondError(c, ActionDiaryToday, err, "websocket_router.diary.DiaryToday")
		return
	}
	c.ToResponse(code.Success.WithData(out), ActionDiaryToday)
}

// AttemptGet 查询写入状态，消息体为写入记录 ID
func (h *DiaryWSHandler) AttemptGet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	id := string(msg.Data)
	if _, err := uuid.Parse(id); err != nil {
		c.ToResponse(code.ErrorInvalidParams.WithDetails(err.Error()), ActionAttemptGet)
		return
	}

	ctx, cancel := h.requestContext()
	defer cancel()

	attempt, err := h.App.SubmitService.Get(ctx, clientAddress(c), id)
	if err != nil {
		h.respondError(c, ActionAttemptGet, err, "websocket_router.diary.AttemptGet")
		return
	}
	c.ToResponse(code.Success.WithData(attempt), ActionAttemptGet)
}
