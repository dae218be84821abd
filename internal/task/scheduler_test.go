package task

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haierkeys/onchain-diary-service/internal/app"
	"github.com/haierkeys/onchain-diary-service/internal/chain"
	"github.com/haierkeys/onchain-diary-service/internal/dao"
	"github.com/haierkeys/onchain-diary-service/pkg/safe_close"

	"github.com/creasty/defaults"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTask struct {
	runs     atomic.Int32
	interval time.Duration
	startup  bool
	err      error
	panics   bool
}

func (t *countingTask) Name() string { return "counting" }

func (t *countingTask) Run(ctx context.Context) error {
	t.runs.Add(1)
	if t.panics {
		panic("boom")
	}
	return t.err
}

func (t *countingTask) LoopInterval() time.Duration { return t.interval }
func (t *countingTask) IsStartupRun() bool          { return t.startup }

func TestScheduler_RunsUntilClosed(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	loop := &countingTask{interval: 10 * time.Millisecond, startup: true, err: errors.New("keep going")}
	once := &countingTask{startup: true}
	s.AddTask(loop)
	s.AddTask(once)
	s.Start()

	require.Eventually(t, func() bool { return loop.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())

	stopped := loop.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, loop.runs.Load())
	assert.Equal(t, int32(1), once.runs.Load())
}

func TestScheduler_RecoversPanic(t *testing.T) {
	sc := safe_close.NewSafeClose()
	s := NewScheduler(zap.NewNop(), sc)

	task := &countingTask{interval: 10 * time.Millisecond, panics: true}
	s.AddTask(task)
	s.Start()

	require.Eventually(t, func() bool { return task.runs.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	sc.SendCloseSignal(nil)
	require.NoError(t, sc.WaitClosed())
}

func newTestApp(t *testing.T, retention string) *app.App {
	t.Helper()
	t.Setenv(chain.EnvContractAddress, "")

	cfg := new(app.AppConfig)
	require.NoError(t, defaults.Set(cfg))
	cfg.Database.Path = filepath.Join(t.TempDir(), "diary.sqlite3")
	cfg.Chain.BlockTime = "0s"
	cfg.Diary.AttemptRetention = retention

	db, err := dao.NewDBEngine(cfg.Database, false, nil)
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), db, app.WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestManager_RegisterTasks(t *testing.T) {
	a := newTestApp(t, "30d")
	m := NewManager(zap.NewNop(), safe_close.NewSafeClose(), a)
	require.NoError(t, m.RegisterTasks())
	assert.ElementsMatch(t, []string{"WriteReconcile", "AttemptCleanup"}, m.Tasks())

	// 保留时间为 0 时不启用清理
	disabled := newTestApp(t, "0")
	m = NewManager(zap.NewNop(), safe_close.NewSafeClose(), disabled)
	require.NoError(t, m.RegisterTasks())
	assert.Equal(t, []string{"WriteReconcile"}, m.Tasks())
}

func TestTasks_Run(t *testing.T) {
	a := newTestApp(t, "30d")

	reconcile, err := NewWriteReconcileTask(a)
	require.NoError(t, err)
	assert.NoError(t, reconcile.Run(context.Background()))
	assert.Equal(t, time.Minute, reconcile.LoopInterval())

	cleanup, err := NewAttemptCleanupTask(a)
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	assert.NoError(t, cleanup.Run(context.Background()))
	assert.False(t, cleanup.IsStartupRun())
}
