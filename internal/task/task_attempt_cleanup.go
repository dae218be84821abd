package task

import (
	"context"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"

	"go.uber.org/zap"
)

// init 自动注册写入记录清理任务
func init() {
	Register(NewAttemptCleanupTask)
}

// AttemptCleanupTask 删除超过保留时间的已结束写入记录
type AttemptCleanupTask struct {
	app       *app.App
	interval  time.Duration
	retention time.Duration
}

// NewAttemptCleanupTask 创建清理任务，保留时间为空时不启用
func NewAttemptCleanupTask(a *app.App) (Task, error) {
	cfg := a.Config()
	if cfg.Diary.AttemptRetention == "" {
		return nil, nil
	}
	retention := cfg.GetAttemptRetention()
	if retention <= 0 {
		return nil, nil
	}
	return &AttemptCleanupTask{
		app:       a,
		interval:  cfg.GetCleanupInterval(),
		retention: retention,
	}, nil
}

// Name 返回任务名称
func (t *AttemptCleanupTask) Name() string {
	return "AttemptCleanup"
}

// Run 执行清理
func (t *AttemptCleanupTask) Run(ctx context.Context) error {
	n, err := t.app.SubmitService.Cleanup(ctx, t.retention)
	if err != nil {
		return err
	}
	t.app.Logger().Info("task log",
		zap.String("task", t.Name()),
		zap.Int64("deleted", n))
	return nil
}

// LoopInterval 返回执行间隔
func (t *AttemptCleanupTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 是否立即执行一次
func (t *AttemptCleanupTask) IsStartupRun() bool {
	return false
}
