package api_router

import (
	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	apperrors "github.com/haierkeys/onchain-diary-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// AttemptHandler 日记写入 API 路由处理器
type AttemptHandler struct {
	*Handler
}

// NewAttemptHandler 创建 AttemptHandler 实例
func NewAttemptHandler(a *app.App) *AttemptHandler {
	return &AttemptHandler{Handler: NewHandler(a)}
}

// Submit 提交当前草稿，立即返回写入记录，后续进度通过 WebSocket 推送
// @Summary 提交日记
// @Tags 写入
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.WriteAttemptDTO}
// @Router /api/diary/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()
	attempt, err := h.App.SubmitService.Submit(ctx, address(c))
	if err != nil {
		h.logError(ctx, "AttemptHandler.Submit", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.SuccessSubmitted.WithData(attempt))
}

// Get 查询一次写入的状态
// @Summary 写入状态
// @Tags 写入
// @Security UserAuthToken
// @Produce json
// @Param id query string true "记录 ID"
// @Success 200 {object} pkgapp.Res{data=dto.WriteAttemptDTO}
// @Router /api/diary/attempt [get]
func (h *AttemptHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.AttemptGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("AttemptHandler.Get", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	attempt, err := h.App.SubmitService.Get(ctx, address(c), params.ID)
	if err != nil {
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.Success.WithData(attempt))
}

// List 分页列出写入记录，按创建时间倒序
// @Summary 写入记录
// @Tags 写入
// @Security UserAuthToken
// @Produce json
// @Param page query int false "页码"
// @Param pageSize query int false "每页数量"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]dto.WriteAttemptDTO}}
// @Router /api/diary/attempts [get]
func (h *AttemptHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()

	page := pkgapp.GetPage(c)
	pageSize := pkgapp.GetPageSizeWithConfig(c, pkgapp.PaginationConfig{
		DefaultPageSize: cfg.App.DefaultPageSize,
		MaxPageSize:     cfg.App.MaxPageSize,
	})

	ctx := c.Request.Context()
	list, total, err := h.App.SubmitService.List(ctx, address(c), page, pageSize)
	if err != nil {
		h.logError(ctx, "AttemptHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponseList(code.Success, list, int(total))
}
