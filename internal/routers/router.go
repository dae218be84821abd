package routers

import (
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	"github.com/haierkeys/onchain-diary-service/internal/middleware"
	"github.com/haierkeys/onchain-diary-service/internal/routers/api_router"
	"github.com/haierkeys/onchain-diary-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"
	"github.com/haierkeys/onchain-diary-service/pkg/limiter"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
	"github.com/opentracing/opentracing-go"
)

// newMethodLimiters 写入和连接接口的限流规则
func newMethodLimiters() limiter.Face {
	return limiter.NewMethodLimiter().AddBuckets(
		limiter.BucketRule{
			Key:          "/api/wallet/connect",
			FillInterval: time.Second,
			Capacity:     10,
			Quantum:      10,
		},
		limiter.BucketRule{
			Key:          "/api/diary/submit",
			FillInterval: time.Second,
			Capacity:     5,
			Quantum:      5,
		},
		limiter.BucketRule{
			Key:          "/api/diary/draft/image",
			FillInterval: time.Second,
			Capacity:     5,
			Quantum:      5,
		},
	)
}

// NewRouter 创建对外 API 路由
// tracer 为 nil 时只生成 Trace ID，不创建 span
func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator, tracer opentracing.Tracer) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()
	log := appContainer.Logger()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:  true,
			ParallelEnabled:   true,                                 // 开启并行消息处理
			Recovery:          gws.Recovery,                         // 开启异常恢复
			PermessageDeflate: gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:   8,
		},
		ReturnSuccess: appContainer.IsReturnSuccess(),
	}, appContainer.Wallets.Authorize, log)

	diaryWSHandler := websocket_router.NewDiaryWSHandler(appContainer)
	wss.Use(websocket_router.ActionDraftGet, diaryWSHandler.DraftGet)
	wss.Use(websocket_router.ActionDiaryToday, diaryWSHandler.DiaryToday)
	wss.Use(websocket_router.ActionAttemptGet, diaryWSHandler.AttemptGet)

	bindPushes(appContainer, wss)

	r := gin.New()
	r.Use(middleware.TraceMiddleware(cfg.Tracer, tracer)) // Trace ID 中间件
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.RecoveryWithLogger(log))
	r.Use(middleware.Cors(cfg.Security.AllowOrigins, cfg.Tracer.Header))

	api := r.Group("/api")
	{
		api.Use(middleware.RateLimiter(newMethodLimiters()))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.LangWithTranslator(uni))

		// 创建 Handlers（注入 App Container）
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)
		walletHandler := api_router.NewWalletHandler(appContainer)
		diaryHandler := api_router.NewDiaryHandler(appContainer)
		draftHandler := api_router.NewDraftHandler(appContainer)
		attemptHandler := api_router.NewAttemptHandler(appContainer)

		// 无需认证
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)
		api.GET("/wallet/accounts", walletHandler.Accounts)
		api.POST("/wallet/connect", walletHandler.Connect)
		api.GET("/diary/config", diaryHandler.Config)
		api.GET("/diary/day", diaryHandler.Day)

		// 升级后通过 Authorization 消息认证
		api.GET("/diary/events", wss.Run())

		auth := api.Group("", middleware.WalletAuthToken(appContainer.Wallets.Authorize))
		{
			auth.GET("/wallet/session", walletHandler.Session)
			auth.POST("/wallet/disconnect", walletHandler.Disconnect)

			auth.GET("/diary/today", diaryHandler.Today)
			auth.GET("/diary/history", diaryHandler.History)

			auth.GET("/diary/draft", draftHandler.Get)
			auth.POST("/diary/draft/content", draftHandler.Content)
			auth.POST("/diary/draft/mood", draftHandler.Mood)
			auth.POST("/diary/draft/image", draftHandler.Image)
			auth.DELETE("/diary/draft/image", draftHandler.ClearImage)
			auth.POST("/diary/draft/dismiss", draftHandler.DismissError)

			auth.POST("/diary/submit", attemptHandler.Submit)
			auth.GET("/diary/attempt", attemptHandler.Get)
			auth.GET("/diary/attempts", attemptHandler.List)
		}

		// 仅本地开发链
		if _, ok := appContainer.LocalChain(); ok {
			devHandler := api_router.NewDevHandler(appContainer)
			api.GET("/dev/time", devHandler.ChainTime)
			api.POST("/dev/increase-time", devHandler.IncreaseTime)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}

// bindPushes 把写入进度、链上事件和断开通知推送给对应地址的 WebSocket 连接
func bindPushes(appContainer *app.App, wss *pkgapp.WebsocketServer) {
	pushes := appContainer.Metrics.WSPushes
	explorer := appContainer.Config().Chain.ExplorerURL

	appContainer.SubmitService.OnUpdate(func(a *dto.WriteAttemptDTO) {
		if wss.Push(a.Address, websocket_router.ActionAttemptUpdate, code.SuccessAttemptUpdated.WithData(a)) > 0 {
			pushes.WithLabelValues(websocket_router.ActionAttemptUpdate).Inc()
		}
	})

	appContainer.Backend.Subscribe(func(ev chain.WrittenEvent) {
		user := ev.User.Hex()
		data := &dto.DiaryWrittenDTO{
			Address:     user,
			Day:         ev.Day,
			Content:     ev.Content,
			TxHash:      ev.TxHash.Hex(),
			BlockNumber: ev.BlockNumber,
			ExplorerURL: chain.ExplorerTxURL(explorer, ev.TxHash),
		}
		if wss.Push(user, websocket_router.ActionDiaryWritten, code.SuccessDiaryWritten.WithData(data)) > 0 {
			pushes.WithLabelValues(websocket_router.ActionDiaryWritten).Inc()
		}
	})

	appContainer.Wallets.OnDisconnect(func(addr common.Address) {
		if wss.Push(addr.Hex(), websocket_router.ActionDisconnected, code.SuccessDisconnected) > 0 {
			pushes.WithLabelValues(websocket_router.ActionDisconnected).Inc()
		}
	})
}
