package api_router

import (
	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	apperrors "github.com/haierkeys/onchain-diary-service/pkg/errors"
	"github.com/haierkeys/onchain-diary-service/pkg/timex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// WalletHandler 钱包连接 API 路由处理器
type WalletHandler struct {
	*Handler
}

// NewWalletHandler 创建 WalletHandler 实例
func NewWalletHandler(a *app.App) *WalletHandler {
	return &WalletHandler{Handler: NewHandler(a)}
}

// Accounts 可连接的账户列表
// @Summary 账户列表
// @Tags 钱包
// @Produce json
// @Success 200 {object} pkgapp.Res{data=[]dto.AccountDTO}
// @Router /api/wallet/accounts [get]
func (h *WalletHandler) Accounts(c *gin.Context) {
	accounts := h.App.Wallets.Keystore().Accounts()
	out := make([]*dto.AccountDTO, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, &dto.AccountDTO{
			Address:   a.Address,
			Label:     a.Label,
			WatchOnly: a.WatchOnly,
			Connected: h.App.Wallets.Connected(common.HexToAddress(a.Address)),
		})
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// Connect 连接账户并签发会话 Token
// @Summary 连接钱包
// @Tags 钱包
// @Accept json
// @Produce json
// @Param params body dto.WalletConnectRequest true "连接参数"
// @Success 200 {object} pkgapp.Res{data=dto.WalletSessionDTO}
// @Router /api/wallet/connect [post]
func (h *WalletHandler) Connect(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.WalletConnectRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.bindFailed("WalletHandler.Connect", errs)
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	token, s, err := h.App.Wallets.Connect(params.Address, pkgapp.GetRequestIP(c))
	if err != nil {
		h.logError(c.Request.Context(), "WalletHandler.Connect", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessConnected.WithData(&dto.WalletSessionDTO{
		Address:     s.Address.Hex(),
		Token:       token,
		SessionID:   s.ID,
		ChainID:     h.App.Backend.ChainID().Int64(),
		ConnectedAt: timex.Time(s.ConnectedAt),
	}).WithAddress(s.Address.Hex()))
}

// Disconnect 断开当前账户，未完成的签名请求被拒绝，草稿被丢弃
// @Summary 断开钱包
// @Tags 钱包
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res
// @Router /api/wallet/disconnect [post]
func (h *WalletHandler) Disconnect(c *gin.Context) {
	addr := address(c)
	h.App.Wallets.Disconnect(common.HexToAddress(addr))
	pkgapp.NewResponse(c).ToResponse(code.SuccessDisconnected.WithAddress(addr))
}

// Session 当前会话
// @Summary 当前会话
// @Tags 钱包
// @Security UserAuthToken
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.WalletSessionDTO}
// @Router /api/wallet/session [get]
func (h *WalletHandler) Session(c *gin.Context) {
	entity := pkgapp.GetWallet(c)
	if entity == nil {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	out := &dto.WalletSessionDTO{
		Address:   entity.Address,
		SessionID: entity.SessionID,
		ChainID:   h.App.Backend.ChainID().Int64(),
	}
	if entity.IssuedAt != nil {
		out.ConnectedAt = timex.Time(entity.IssuedAt.Time)
	}
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}
