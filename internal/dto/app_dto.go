// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// VersionDTO version information for API response
// VersionDTO 版本信息 API 响应对象
type VersionDTO struct {
	Version   string `json:"version"`   // Current version // 当前版本
	GitTag    string `json:"gitTag"`    // Git tag // Git 标签
	BuildTime string `json:"buildTime"` // Build time // 构建时间
}

// HealthDTO health check response
// HealthDTO 健康检查响应
type HealthDTO struct {
	Status     string     `json:"status"`           // ok / degraded // 服务状态
	ChainMode  string     `json:"chainMode"`        // local / rpc // 链模式
	ChainID    int64      `json:"chainId"`          // Chain ID // 链 ID
	Configured bool       `json:"configured"`       // Contract address configured // 是否已配置合约地址
	Database   string     `json:"database"`         // Database status // 数据库状态
	Uptime     string     `json:"uptime"`           // Process uptime // 运行时长
	System     *SystemDTO `json:"system,omitempty"` // Host status // 主机状态
}

// SystemDTO host and process status
// SystemDTO 主机与进程状态
type SystemDTO struct {
	Hostname          string  `json:"hostname"`          // Host name // 主机名
	Platform          string  `json:"platform"`          // OS platform // 操作系统
	Goroutines        int     `json:"goroutines"`        // Goroutine count // 协程数
	MemoryTotal       uint64  `json:"memoryTotal"`       // Host memory bytes // 主机内存
	MemoryUsedPercent float64 `json:"memoryUsedPercent"` // Host memory usage // 主机内存使用率
	ProcessRSS        uint64  `json:"processRss"`        // Process resident memory // 进程常驻内存
	Load1             float64 `json:"load1"`             // 1 minute load average // 1 分钟负载
}
