// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/dao"
	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/internal/metrics"
	"github.com/haierkeys/onchain-diary-service/internal/service"
	"github.com/haierkeys/onchain-diary-service/internal/wallet"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/cache"
	"github.com/haierkeys/onchain-diary-service/pkg/storage"
	"github.com/haierkeys/onchain-diary-service/pkg/workerpool"
	"github.com/haierkeys/onchain-diary-service/pkg/writequeue"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	// 并发控制组件
	workerPool    *workerpool.Pool
	writeQueueMgr *writequeue.Manager

	// 链与钱包
	Backend chain.Backend
	Wallets *wallet.Manager

	// Repository 层
	DiaryEntryRepo   domain.DiaryEntryRepository
	WriteAttemptRepo domain.WriteAttemptRepository

	// Service 层
	ComposerService service.ComposerService
	ImageService    service.ImageService
	DiaryService    service.DiaryService
	SubmitService   service.SubmitService

	// 基础设施组件
	TokenManager pkgapp.TokenManager
	Cache        cache.Cache
	Storage      storage.Storager
	Metrics      *metrics.Metrics

	registerer  prometheus.Registerer
	unsubscribe func()
	startedAt   time.Time

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// Option 容器可选项
type Option func(*App)

// WithRegisterer 指定 prometheus 注册表，默认使用全局注册表
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(a *App) {
		a.registerer = reg
	}
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// db: 数据库连接（必须）
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		DB:         db,
		startedAt:  time.Now(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	// 初始化 Write Queue Manager
	wqConfig := cfg.GetWriteQueueConfig()
	a.writeQueueMgr = writequeue.New(&wqConfig, logger)

	// 初始化 DAO 与 Repository 层
	a.Dao = dao.New(db, cfg.Database, logger)
	a.DiaryEntryRepo = dao.NewDiaryEntryRepository(a.Dao)
	a.WriteAttemptRepo = dao.NewWriteAttemptRepository(a.Dao)

	a.Metrics = metrics.New(a.registerer)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 初始化链后端，本地链的合约条目保存在数据库中
	backend, err := chain.NewBackend(ctx, &cfg.Chain, cfg.Contract, a.DiaryEntryRepo, a.writeQueueMgr, logger)
	if err != nil {
		a.closeEarly()
		return nil, fmt.Errorf("failed to init chain backend: %w", err)
	}
	a.Backend = backend

	// 初始化 TokenManager 与钱包
	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Issuer:    pkgapp.DefaultTokenIssuer,
		Expiry:    cfg.GetTokenExpiry(),
	})
	ks, err := wallet.NewKeystore(cfg.Wallet, cfg.IsLocalChain())
	if err != nil {
		a.closeEarly()
		return nil, fmt.Errorf("failed to load wallet accounts: %w", err)
	}
	if ks.Len() == 0 {
		logger.Warn("no wallet accounts configured, set wallet.private-keys")
	}
	a.Wallets = wallet.NewManager(ks, a.TokenManager, logger)

	// 初始化读缓存
	a.Cache, err = cache.New(ctx, cfg.Cache)
	if err != nil {
		a.closeEarly()
		return nil, fmt.Errorf("failed to init cache: %w", err)
	}

	// 图片使用对象存储时初始化存储
	if cfg.Image.Mode == service.ImageModeStorage {
		a.Storage, err = storage.NewClient(ctx, &cfg.Storage, logger)
		if err != nil {
			a.closeEarly()
			return nil, fmt.Errorf("failed to init storage: %w", err)
		}
	}

	// 初始化 Service 层（依赖注入）
	svcConfig := cfg.ServiceConfig()
	a.ComposerService = service.NewComposerService(a.connected, backend.Configured, logger, svcConfig)
	a.ImageService = service.NewImageService(a.Storage, logger, svcConfig)
	a.DiaryService = service.NewDiaryService(backend, a.Cache, a.Metrics, logger, svcConfig)
	a.SubmitService = service.NewSubmitService(
		a.WriteAttemptRepo,
		a.ComposerService,
		a.ImageService,
		backend,
		a.signer,
		a.workerPool,
		a.Metrics,
		logger,
		svcConfig,
	)

	// 断开连接时丢弃草稿
	a.Wallets.OnDisconnect(func(addr common.Address) {
		a.ComposerService.Discard(addr.Hex())
	})

	// 新条目上链后移除该日的缓存
	a.unsubscribe = backend.Subscribe(func(ev chain.WrittenEvent) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.DiaryService.Invalidate(ctx, ev.User.Hex(), ev.Day)
	})

	logger.Info("App container initialized successfully",
		zap.String("chainMode", cfg.Chain.Mode),
		zap.String("contract", backend.ContractAddress().Hex()),
		zap.Bool("contractConfigured", backend.Configured()),
		zap.Int("accounts", ks.Len()),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Int("writeQueueCapacity", wqConfig.QueueCapacity))

	return a, nil
}

// connected 地址字符串对应的钱包是否已连接
func (a *App) connected(address string) bool {
	return common.IsHexAddress(address) && a.Wallets.Connected(common.HexToAddress(address))
}

// signer 返回账户当前会话的签名器
func (a *App) signer(addr common.Address) (chain.Signer, error) {
	s, err := a.Wallets.Signer(addr)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// closeEarly 初始化失败时释放已创建的组件
func (a *App) closeEarly() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.workerPool.Shutdown(ctx)
	_ = a.writeQueueMgr.Shutdown(ctx)
	if a.Backend != nil {
		_ = a.Backend.Close()
	}
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
		a.logger.Info("Database connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// LocalChain 返回进程内开发链，RPC 模式下 ok 为 false
func (a *App) LocalChain() (*chain.LocalBackend, bool) {
	b, ok := a.Backend.(*chain.LocalBackend)
	return b, ok
}

// ContractConfig 合约参数
func (a *App) ContractConfig() contract.Config {
	return a.config.Contract
}

// StartedAt 容器创建时间
func (a *App) StartedAt() time.Time {
	return a.startedAt
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return pkgapp.VersionInfo{
		Version:   Version,
		GitTag:    GitTag,
		BuildTime: BuildTime,
	}
}

// IsReturnSuccess 是否返回成功响应
func (a *App) IsReturnSuccess() bool {
	return a.config.App.IsReturnSussess
}

// IsProductionMode 是否为生产模式
// 根据日志配置中的 Production 字段判断
func (a *App) IsProductionMode() bool {
	return a.config.Log.Production
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// WriteQueueManager 获取 Write Queue Manager（用于高级操作）
func (a *App) WriteQueueManager() *writequeue.Manager {
	return a.writeQueueMgr
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown 优雅关闭应用容器
// 按顺序关闭：Worker Pool -> Write Queue Manager -> 后台操作 -> 链后端 -> 缓存 -> Database
// ctx 用于控制关闭超时，如果为 nil 则使用默认 30 秒超时
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("App container shutting down...")

	// 如果没有提供 context，使用默认超时
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}

	// 标记关闭
	select {
	case <-a.shutdownCh:
		// 已经关闭
		return nil
	default:
		close(a.shutdownCh)
	}

	var errs []error

	// 1. 关闭 Worker Pool（停止接受新任务，等待进行中的写入完成）
	if a.workerPool != nil {
		a.logger.Info("Shutting down worker pool...")
		if err := a.workerPool.Shutdown(ctx); err != nil {
			a.logger.Warn("Worker pool shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("worker pool shutdown: %w", err))
		} else {
			a.logger.Info("Worker pool shutdown completed")
		}
	}

	// 2. 关闭 Write Queue Manager（排空所有队列）
	if a.writeQueueMgr != nil {
		a.logger.Info("Shutting down write queue manager...")
		if err := a.writeQueueMgr.Shutdown(ctx); err != nil {
			a.logger.Warn("write queue manager shutdown error", zap.Error(err))
			errs = append(errs, fmt.Errorf("write queue manager shutdown: %w", err))
		} else {
			a.logger.Info("write queue manager shutdown completed")
		}
	}

	// 3. 等待所有后台操作完成
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All background operations completed")
	case <-ctx.Done():
		a.logger.Warn("Shutdown timeout waiting for background operations")
		errs = append(errs, fmt.Errorf("background operations timeout: %w", ctx.Err()))
	}

	// 4. 关闭链后端与缓存
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.Backend != nil {
		if err := a.Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("chain backend close: %w", err))
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache close: %w", err))
		}
	}

	// 5. 关闭数据库连接
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		a.logger.Warn("App container shutdown completed with errors",
			zap.Int("errorCount", len(errs)))
		return fmt.Errorf("shutdown completed with %d errors: %v", len(errs), errs)
	}

	a.logger.Info("App container shutdown completed successfully")
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownCh 返回关闭信号通道（用于监听关闭事件）
func (a *App) ShutdownCh() <-chan struct{} {
	return a.shutdownCh
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
