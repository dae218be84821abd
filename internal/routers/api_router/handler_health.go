package api_router

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/dto"
	pkgapp "github.com/haierkeys/onchain-diary-service/pkg/app"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查数据库连接与合约配置，附带主机状态
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	cfg := h.App.Config()
	out := dto.HealthDTO{
		Status:     "ok",
		ChainMode:  cfg.Chain.Mode,
		ChainID:    cfg.Chain.ChainID,
		Configured: h.App.Backend.Configured(),
		Database:   "connected",
		Uptime:     time.Since(h.App.StartedAt()).Round(time.Second).String(),
		System:     systemStatus(c.Request.Context()),
	}

	if err := h.App.DB.WithContext(c.Request.Context()).Exec("SELECT 1").Error; err != nil {
		h.logError(c.Request.Context(), "HealthHandler.Check", err)
		out.Database = "error"
		out.Status = "degraded"
	}
	if !out.Configured {
		out.Status = "degraded"
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(out))
}

// systemStatus 读取主机与进程状态，单项读取失败时保留零值
func systemStatus(ctx context.Context) *dto.SystemDTO {
	s := &dto.SystemDTO{Goroutines: runtime.NumGoroutine()}

	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Hostname = info.Hostname
		s.Platform = info.Platform + " " + info.PlatformVersion
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryTotal = vm.Total
		s.MemoryUsedPercent = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		s.Load1 = avg.Load1
	}
	if p, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil {
			s.ProcessRSS = mi.RSS
		}
	}
	return s
}
