// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import (
	"time"

	"github.com/haierkeys/onchain-diary-service/pkg/util"
)

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Diary DiaryServiceConfig // Diary read/write config // 日记读写配置
	Image ImageServiceConfig // Image handling config // 图片处理配置
	Chain ChainServiceConfig // Chain display config // 链相关展示配置
}

// DiaryServiceConfig diary service configuration
// DiaryServiceConfig 日记服务配置
type DiaryServiceConfig struct {
	DailyLimit         uint64 // Writes per address per day, mirrors the contract // 每日写入上限，与合约一致
	MaxContentLength   int    // Max characters in UTF-16 units // 最大字数（UTF-16 码元）
	LookbackDays       int    // Default history window // 默认回看天数
	MaxLookbackDays    int    // Max history window // 最大回看天数
	WriteTimeout       string // Time limit for one write, e.g. 5m // 单次写入的超时时间，如 5m
	HistoryConcurrency int    // Parallel day reads per history refresh // 历史查询的并发读取数
	CacheTTL           string // TTL of cached past-day reads, 0 for no expiry // 历史日期缓存时长，0 表示不过期
}

// ImageServiceConfig image service configuration
// ImageServiceConfig 图片服务配置
type ImageServiceConfig struct {
	Mode         string // inline or storage // inline 或 storage
	MaxSize      int64  // Max upload bytes // 图片大小上限（字节）
	MaxDimension int    // Longest edge after downscale // 缩放后最长边
	JPEGQuality  int    // JPEG quality 1-100 // JPEG 质量
}

// ChainServiceConfig chain information shown to clients
// ChainServiceConfig 客户端展示的链信息
type ChainServiceConfig struct {
	Mode        string // local or rpc // local 或 rpc
	ChainID     int64  // Chain ID // 链 ID
	ExplorerURL string // Block explorer base URL // 区块浏览器地址
}

const (
	ImageModeInline  = "inline"
	ImageModeStorage = "storage"
)

// withDefaults 填充未设置的字段
func (c *ServiceConfig) withDefaults() *ServiceConfig {
	cfg := ServiceConfig{}
	if c != nil {
		cfg = *c
	}
	if cfg.Diary.DailyLimit == 0 {
		cfg.Diary.DailyLimit = 5
	}
	if cfg.Diary.MaxContentLength <= 0 {
		cfg.Diary.MaxContentLength = 20
	}
	if cfg.Diary.LookbackDays <= 0 {
		cfg.Diary.LookbackDays = 7
	}
	if cfg.Diary.MaxLookbackDays <= 0 {
		cfg.Diary.MaxLookbackDays = 30
	}
	if cfg.Diary.HistoryConcurrency <= 0 {
		cfg.Diary.HistoryConcurrency = 8
	}
	if cfg.Image.Mode == "" {
		cfg.Image.Mode = ImageModeInline
	}
	if cfg.Image.MaxSize <= 0 {
		cfg.Image.MaxSize = 5 << 20
	}
	if cfg.Image.MaxDimension <= 0 {
		cfg.Image.MaxDimension = 256
	}
	if cfg.Image.JPEGQuality <= 0 || cfg.Image.JPEGQuality > 100 {
		cfg.Image.JPEGQuality = 75
	}
	return &cfg
}

func (c DiaryServiceConfig) writeTimeout() time.Duration {
	return util.MustParseDuration(c.WriteTimeout, 5*time.Minute)
}

func (c DiaryServiceConfig) cacheTTL() time.Duration {
	return util.MustParseDuration(c.CacheTTL, 24*time.Hour)
}
