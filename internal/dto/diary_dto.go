package dto

import "github.com/haierkeys/onchain-diary-service/internal/domain"

// DiaryHistoryRequest history query parameters
// 历史记录查询参数
type DiaryHistoryRequest struct {
	Days int `json:"days" form:"days" binding:"omitempty,min=1,max=365"` // Lookback window in days // 回看天数
}

// DiaryDayRequest public day read parameters
// 按地址和日序号查询参数
type DiaryDayRequest struct {
	Address string `json:"address" form:"address" binding:"required,address"` // Owner address // 地址
	Day     uint64 `json:"day" form:"day"`                                    // Day index, 0 means today // 日序号，0 表示今天
}

// DiaryEntryDTO one entry of a day
// DiaryEntryDTO 某天的一条日记
type DiaryEntryDTO struct {
	Position int             `json:"position"` // Index within the day // 当天序号
	Content  string          `json:"content"`  // Text // 内容
	ImageTag string          `json:"imageTag"` // Raw on-chain tag // 链上图片标签
	Image    domain.ImageTag `json:"image"`    // Decoded tag // 解码后的标签
}

// DiaryDayDTO entries of a day
// DiaryDayDTO 某天的全部日记
type DiaryDayDTO struct {
	Day     uint64           `json:"day"`     // Day index // 日序号
	Date    string           `json:"date"`    // UTC date // UTC 日期
	Count   uint64           `json:"count"`   // Number of entries // 条目数量
	Entries []*DiaryEntryDTO `json:"entries"` // Entries // 条目
}

// DiaryTodayDTO today's entries and quota
// DiaryTodayDTO 今日日记和剩余次数
type DiaryTodayDTO struct {
	DiaryDayDTO
	DailyLimit uint64 `json:"dailyLimit"` // Daily limit // 每日上限
	Remaining  uint64 `json:"remaining"`  // Writes left today // 今日剩余次数
}

// DiaryConfigDTO client configuration
// DiaryConfigDTO 客户端配置
type DiaryConfigDTO struct {
	ChainMode        string   `json:"chainMode"`         // local / rpc // 链模式
	ChainID          int64    `json:"chainId"`           // Chain ID // 链 ID
	ContractAddress  string   `json:"contractAddress"`   // Contract address // 合约地址
	Configured       bool     `json:"configured"`        // Contract address configured // 是否已配置合约地址
	Warning          string   `json:"warning,omitempty"` // Warning banner // 警告信息
	ExplorerURL      string   `json:"explorerUrl"`       // Block explorer // 区块浏览器
	DailyLimit       uint64   `json:"dailyLimit"`        // Daily limit // 每日上限
	MaxContentLength int      `json:"maxContentLength"`  // Max characters // 最大字数
	LookbackDays     int      `json:"lookbackDays"`      // Default history window // 默认回看天数
	MaxLookbackDays  int      `json:"maxLookbackDays"`   // Max history window // 最大回看天数
	MaxImageSize     int64    `json:"maxImageSize"`      // Max image bytes // 图片大小上限
	Moods            []string `json:"moods"`             // Selectable moods // 可选心情
}

// DiaryWrittenDTO pushed when a DiaryWritten event is mined
// DiaryWrittenDTO DiaryWritten 事件推送
type DiaryWrittenDTO struct {
	Address     string `json:"address"`     // Owner address // 地址
	Day         uint64 `json:"day"`         // Day index // 日序号
	Content     string `json:"content"`     // Text // 内容
	TxHash      string `json:"txHash"`      // Transaction hash // 交易哈希
	BlockNumber uint64 `json:"blockNumber"` // Block number // 区块号
	ExplorerURL string `json:"explorerUrl"` // Explorer link // 浏览器链接
}
