package task

import (
	"context"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"

	"go.uber.org/zap"
)

// init 自动注册写入检查任务
func init() {
	Register(NewWriteReconcileTask)
}

// WriteReconcileTask 检查长时间未结束的写入
// 进程重启或确认超时留下的 pending 记录按交易回执补齐终态
type WriteReconcileTask struct {
	app        *app.App
	interval   time.Duration
	staleAfter time.Duration
}

// NewWriteReconcileTask 创建写入检查任务
func NewWriteReconcileTask(a *app.App) (Task, error) {
	cfg := a.Config()
	return &WriteReconcileTask{
		app:        a,
		interval:   cfg.GetReconcileInterval(),
		staleAfter: cfg.GetReconcileStaleAfter(),
	}, nil
}

// Name 返回任务名称
func (t *WriteReconcileTask) Name() string {
	return "WriteReconcile"
}

// Run 执行检查
func (t *WriteReconcileTask) Run(ctx context.Context) error {
	n, err := t.app.SubmitService.Reconcile(ctx, t.staleAfter)
	if err != nil {
		return err
	}
	if n > 0 {
		t.app.Logger().Info("task log",
			zap.String("task", t.Name()),
			zap.Int("settled", n))
	}
	return nil
}

// LoopInterval 返回执行间隔
func (t *WriteReconcileTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 是否立即执行一次
func (t *WriteReconcileTask) IsStartupRun() bool {
	return true
}
