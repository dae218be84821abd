package api_router

import (
	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	apperrors "github.com/haierkeys/onchain-diary-service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// DiaryHandler 日记读取 API 路由处理器
type DiaryHandler struct {
	*Handler
}

// NewDiaryHandler 创建 DiaryHandler 实例
func NewDiaryHandler(a *app.App) *DiaryHandler {
	return &DiaryHandler{Handler: NewHandler(a)}
}

// Config 客户端配置：链、合约地址、每日上限、可选心情
// @Summary 客户端配置
// @Tags 日记
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.DiaryConfigDTO}
// @Router /api/diary/config [get]
func (h *DiaryHandler) Config(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(h.App.DiaryService.Config()))
}

// Today 今天的日记和剩余写入次数
// @Summary 今日日记
// @Tags 日记
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.DiaryTodayDTO}
// @Router /api/diary/today [get]
func (h *DiaryHandler) Today(c *gin.Context) {
	ctx := c.Request.Context()
	out, err := h.App.DiaryService.Today(ctx, address(c))
	if err != nil {
		h.logError(ctx, "DiaryHandler.Today", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// History 最近几天有条目的日期，按日期倒序
// @Summary 历史日记
// @Tags 日记
// @Security UserAuthToken
// @Produce json
// @Param days query int false "回看天数"
// @Success 200 {object} pkgapp.Res{data=[]dto.DiaryDayDTO}
// @Router /api/diary/history [get]
func (h *DiaryHandler) History(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DiaryHistoryRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("DiaryHandler.History", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	days, err := h.App.DiaryService.History(ctx, address(c), params.Days)
	if err != nil {
		h.logError(ctx, "DiaryHandler.History", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.Success.WithData(days))
}

// Day 读取任意地址某一天的日记
// @Summary 按日期读取
// @Tags 日记
// @Produce json
// @Param address query string true "地址"
// @Param day query int false "日序号，默认今天"
// @Success 200 {object} pkgapp.Res{data=dto.DiaryDayDTO}
// @Router /api/diary/day [get]
func (h *DiaryHandler) Day(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.DiaryDayRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("DiaryHandler.Day", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	ctx := c.Request.Context()
	day, err := h.App.DiaryService.Day(ctx, params.Address, params.Day)
	if err != nil {
		h.logError(ctx, "DiaryHandler.Day", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.Success.WithData(day))
}
