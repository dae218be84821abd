package dto

import "github.com/haierkeys/onchain-diary-service/pkg/timex"

// AttemptGetRequest get one write attempt
// 查询写入记录请求参数
type AttemptGetRequest struct {
	ID string `json:"id" form:"id" binding:"required,uuid"` // Attempt ID // 记录 ID
}

// WriteAttemptDTO write attempt state
// WriteAttemptDTO 写入记录
type WriteAttemptDTO struct {
	ID           string     `json:"id"`                     // Attempt ID // 记录 ID
	Address      string     `json:"address"`                // Account address // 账户地址
	Content      string     `json:"content"`                // Text // 内容
	Mood         string     `json:"mood,omitempty"`         // Mood // 心情
	ImageTag     string     `json:"imageTag,omitempty"`     // On-chain image tag // 图片标签
	Stage        string     `json:"stage"`                  // Lifecycle stage // 阶段
	TxHash       string     `json:"txHash,omitempty"`       // Transaction hash // 交易哈希
	ExplorerURL  string     `json:"explorerUrl,omitempty"`  // Explorer link // 浏览器链接
	Day          uint64     `json:"day,omitempty"`          // Day index // 日序号
	BlockNumber  uint64     `json:"blockNumber,omitempty"`  // Block number // 区块号
	ErrorKind    string     `json:"errorKind,omitempty"`    // Error kind // 错误类型
	ErrorMessage string     `json:"errorMessage,omitempty"` // Error message // 错误信息
	Warning      string     `json:"warning,omitempty"`      // Warning // 警告
	CreatedAt    timex.Time `json:"createdAt"`              // Created time // 创建时间
	UpdatedAt    timex.Time `json:"updatedAt"`              // Updated time // 更新时间
}
