package api_router

import (
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DevHandler 本地开发链辅助接口
type DevHandler struct {
	*Handler
}

// NewDevHandler 创建 DevHandler 实例
func NewDevHandler(a *app.App) *DevHandler {
	return &DevHandler{Handler: NewHandler(a)}
}

func chainTime(b *chain.LocalBackend, now time.Time) *dto.ChainTimeDTO {
	return &dto.ChainTimeDTO{
		Time:        now.UTC().Format(time.RFC3339),
		Day:         domain.DayOf(now),
		BlockNumber: b.BlockNumber(),
	}
}

// IncreaseTime 推进链上时间并产出一个区块
// @Summary 推进链上时间
// @Tags 开发链
// @Accept json
// @Produce json
// @Param params body dto.IncreaseTimeRequest true "秒数"
// @Success 200 {object} pkgapp.Res{data=dto.ChainTimeDTO}
// @Router /api/dev/increase-time [post]
func (h *DevHandler) IncreaseTime(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	local, ok := h.App.LocalChain()
	if !ok {
		response.ToResponse(code.ErrorDevChainOnly)
		return
	}

	params := &dto.IncreaseTimeRequest{}
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("DevHandler.IncreaseTime", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	now := local.IncreaseTime(time.Duration(params.Seconds) * time.Second)
	block := local.Mine()
	h.App.Logger().Info("dev chain time increased",
		zap.Int64("seconds", params.Seconds),
		zap.Uint64("block", block),
	)
	response.ToResponse(code.SuccessTimeIncreased.WithData(chainTime(local, now)))
}

// ChainTime 当前链上时间
// @Summary 链上时间
// @Tags 开发链
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.ChainTimeDTO}
// @Router /api/dev/time [get]
func (h *DevHandler) ChainTime(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	local, ok := h.App.LocalChain()
	if !ok {
		response.ToResponse(code.ErrorDevChainOnly)
		return
	}
	response.ToResponse(code.Success.WithData(chainTime(local, local.Now())))
}
