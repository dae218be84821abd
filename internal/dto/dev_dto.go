package dto

// IncreaseTimeRequest advance the dev chain clock
// 推进开发链时间请求参数
type IncreaseTimeRequest struct {
	Seconds int64 `json:"seconds" form:"seconds" binding:"required,min=1"` // Seconds to add // 推进秒数
}

// ChainTimeDTO dev chain clock
// ChainTimeDTO 开发链时间
type ChainTimeDTO struct {
	Time        string `json:"time"`        // Chain time // 链上时间
	Day         uint64 `json:"day"`         // Day index // 日序号
	BlockNumber uint64 `json:"blockNumber"` // Block number // 区块号
}
