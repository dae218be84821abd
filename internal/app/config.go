// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/contract"
	"github.com/haierkeys/onchain-diary-service/internal/dao"
	"github.com/haierkeys/onchain-diary-service/internal/service"
	"github.com/haierkeys/onchain-diary-service/internal/wallet"
	"github.com/haierkeys/onchain-diary-service/pkg/cache"
	"github.com/haierkeys/onchain-diary-service/pkg/storage"
	"github.com/haierkeys/onchain-diary-service/pkg/tracer"
	"github.com/haierkeys/onchain-diary-service/pkg/util"
	"github.com/haierkeys/onchain-diary-service/pkg/workerpool"
	"github.com/haierkeys/onchain-diary-service/pkg/writequeue"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File     string          `yaml:"-"` // 配置文件路径，不序列化
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Database dao.Config      `yaml:"database"`
	App      AppSettings     `yaml:"app"`
	Security SecurityConfig  `yaml:"security"`
	Tracer   tracer.Config   `yaml:"tracer"`
	Chain    chain.Config    `yaml:"chain"`
	Contract contract.Config `yaml:"contract"`
	Wallet   wallet.Config   `yaml:"wallet"`
	Diary    DiaryConfig     `yaml:"diary"`
	Image    ImageConfig     `yaml:"image"`
	Storage  storage.Config  `yaml:"storage"`
	Cache    cache.Config    `yaml:"cache"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"warn"`
	// File 日志文件路径，默认为 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址，提供 metrics 与 pprof
	PrivateHttpListen string `yaml:"private-http-listen" default:":9001"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"onchain-diary-Auth-Token"`
	// AllowOrigins CORS 允许的来源，为空时允许全部
	AllowOrigins []string `yaml:"allow-origins"`
}

// AppSettings 应用设置
type AppSettings struct {
	// DefaultPageSize 默认页面大小
	DefaultPageSize int `yaml:"default-page-size" default:"10"`
	// MaxPageSize 最大页面大小
	MaxPageSize int `yaml:"max-page-size" default:"100"`
	// DefaultContextTimeout 默认上下文超时时间（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
	// IsReturnSussess 是否返回成功信息
	IsReturnSussess bool `yaml:"is-return-sussess" default:"false"`

	// Worker Pool 配置
	WorkerPoolMaxWorkers int `yaml:"worker-pool-max-workers" default:"16"`
	WorkerPoolQueueSize  int `yaml:"worker-pool-queue-size" default:"256"`

	// Write Queue 配置
	WriteQueueCapacity int    `yaml:"write-queue-capacity" default:"64"`
	WriteQueueTimeout  string `yaml:"write-queue-timeout" default:"30s"`
	WriteQueueIdleTime string `yaml:"write-queue-idle-time" default:"10m"`
}

// DiaryConfig 日记读写配置
type DiaryConfig struct {
	// MaxContentLength 输入框最大字数
	MaxContentLength int `yaml:"max-content-length" default:"20"`
	// LookbackDays 默认回看天数
	LookbackDays int `yaml:"lookback-days" default:"7"`
	// MaxLookbackDays 最大回看天数
	MaxLookbackDays int `yaml:"max-lookback-days" default:"30"`
	// WriteTimeout 单次写入（上传、签名、确认）的超时时间
	WriteTimeout string `yaml:"write-timeout" default:"5m"`
	// HistoryConcurrency 历史查询并发读取数
	HistoryConcurrency int `yaml:"history-concurrency" default:"8"`
	// ReconcileInterval 检查未结束写入的间隔
	ReconcileInterval string `yaml:"reconcile-interval" default:"1m"`
	// ReconcileStaleAfter 超过该时间未更新的写入视为中断
	ReconcileStaleAfter string `yaml:"reconcile-stale-after" default:"10m"`
	// AttemptRetention 已结束写入记录的保留时间
	AttemptRetention string `yaml:"attempt-retention" default:"30d"`
	// CleanupInterval 清理写入记录的间隔
	CleanupInterval string `yaml:"cleanup-interval" default:"6h"`
}

// ImageConfig 图片配置
type ImageConfig struct {
	// Mode inline 写入 base64，storage 上传到存储后写入对象 key
	Mode string `yaml:"mode" default:"inline"`
	// MaxSize 上传大小上限
	MaxSize string `yaml:"max-size" default:"5MB"`
	// MaxDimension 缩放后最长边
	MaxDimension int `yaml:"max-dimension" default:"256"`
	// JPEGQuality JPEG 质量
	JPEGQuality int `yaml:"jpeg-quality" default:"75"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := c.parse(file); err != nil {
		return nil, realpath, err
	}
	return c, realpath, nil
}

// parse 解析 YAML 并补齐默认值
func (c *AppConfig) parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "parse config file failed")
	}

	// 再次设置默认值，以填充 YAML 中存在但值为空的字段
	// defaults.Set 只有在字段为该类型的零值时才会填充
	if err := defaults.Set(c); err != nil {
		return errors.Wrap(err, "re-set default config failed")
	}

	if c.Image.Mode != service.ImageModeInline && c.Image.Mode != service.ImageModeStorage {
		return errors.Errorf("unknown image mode %q", c.Image.Mode)
	}
	if c.Contract.DailyLimit == 0 {
		return errors.New("contract.daily-limit must be positive")
	}
	return nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.App.WorkerPoolMaxWorkers > 0 {
		cfg.MaxWorkers = c.App.WorkerPoolMaxWorkers
	}
	if c.App.WorkerPoolQueueSize > 0 {
		cfg.QueueSize = c.App.WorkerPoolQueueSize
	}

	return cfg
}

// GetWriteQueueConfig 获取 Write Queue 配置
func (c *AppConfig) GetWriteQueueConfig() writequeue.Config {
	cfg := writequeue.DefaultConfig()

	if c.App.WriteQueueCapacity > 0 {
		cfg.QueueCapacity = c.App.WriteQueueCapacity
	}
	if c.App.WriteQueueTimeout != "" {
		if timeout, err := util.ParseDuration(c.App.WriteQueueTimeout); err == nil {
			cfg.WriteTimeout = timeout
		}
	}
	if c.App.WriteQueueIdleTime != "" {
		if idleTime, err := util.ParseDuration(c.App.WriteQueueIdleTime); err == nil {
			cfg.IdleTimeout = idleTime
		}
	}

	return cfg
}

// GetTokenExpiry 获取钱包会话 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	return util.MustParseDuration(c.Wallet.TokenExpiry, 7*24*time.Hour)
}

// GetImageMaxSize 获取图片大小上限（字节）
func (c *AppConfig) GetImageMaxSize() int64 {
	if n, err := util.ParseSize(c.Image.MaxSize); err == nil && n > 0 {
		return n
	}
	return 5 << 20
}

// GetReconcileInterval 获取检查未结束写入的间隔
func (c *AppConfig) GetReconcileInterval() time.Duration {
	return util.MustParseDuration(c.Diary.ReconcileInterval, time.Minute)
}

// GetReconcileStaleAfter 获取写入视为中断的时间
func (c *AppConfig) GetReconcileStaleAfter() time.Duration {
	return util.MustParseDuration(c.Diary.ReconcileStaleAfter, 10*time.Minute)
}

// GetAttemptRetention 获取写入记录保留时间
func (c *AppConfig) GetAttemptRetention() time.Duration {
	return util.MustParseDuration(c.Diary.AttemptRetention, 30*24*time.Hour)
}

// GetCleanupInterval 获取清理写入记录的间隔
func (c *AppConfig) GetCleanupInterval() time.Duration {
	return util.MustParseDuration(c.Diary.CleanupInterval, 6*time.Hour)
}

// IsLocalChain 是否使用进程内开发链
func (c *AppConfig) IsLocalChain() bool {
	return c.Chain.Mode == "" || c.Chain.Mode == chain.ModeLocal
}

// ServiceConfig 生成服务层配置
func (c *AppConfig) ServiceConfig() *service.ServiceConfig {
	return &service.ServiceConfig{
		Diary: service.DiaryServiceConfig{
			DailyLimit:         c.Contract.DailyLimit,
			MaxContentLength:   c.Diary.MaxContentLength,
			LookbackDays:       c.Diary.LookbackDays,
			MaxLookbackDays:    c.Diary.MaxLookbackDays,
			WriteTimeout:       c.Diary.WriteTimeout,
			HistoryConcurrency: c.Diary.HistoryConcurrency,
			CacheTTL:           c.Cache.TTL,
		},
		Image: service.ImageServiceConfig{
			Mode:         c.Image.Mode,
			MaxSize:      c.GetImageMaxSize(),
			MaxDimension: c.Image.MaxDimension,
			JPEGQuality:  c.Image.JPEGQuality,
		},
		Chain: service.ChainServiceConfig{
			Mode:        c.Chain.Mode,
			ChainID:     c.Chain.ChainID,
			ExplorerURL: c.Chain.ExplorerURL,
		},
	}
}
