// Package workerpool 提供固定数量 worker 的任务池
// 提交流水线、后台对账等长耗时任务都在池中运行，避免请求 goroutine 泄漏
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWorkerPoolFull 任务队列已满
	ErrWorkerPoolFull = errors.New("worker pool queue is full")
	// ErrWorkerPoolClosed 任务池已关闭
	ErrWorkerPoolClosed = errors.New("worker pool is closed")
	// ErrTaskCancelled 任务在开始执行前已被取消
	ErrTaskCancelled = errors.New("task was cancelled")
)

// Config 任务池配置
type Config struct {
	// MaxWorkers 并发 worker 数量，默认 16
	MaxWorkers int
	// QueueSize 等待队列长度，默认 256
	QueueSize int
	// WarningPercent 活跃度告警阈值，默认 0.8
	WarningPercent float64
}

func DefaultConfig() Config {
	return Config{
		MaxWorkers:     16,
		QueueSize:      256,
		WarningPercent: 0.8,
	}
}

// job 队列中的任务
type job struct {
	name string
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool 任务池
type Pool struct {
	config Config
	logger *zap.Logger

	jobs    chan job
	workers sync.WaitGroup

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New 创建任务池，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.MaxWorkers > 0 {
			c.MaxWorkers = cfg.MaxWorkers
		}
		if cfg.QueueSize > 0 {
			c.QueueSize = cfg.QueueSize
		}
		if cfg.WarningPercent > 0 && cfg.WarningPercent <= 1 {
			c.WarningPercent = cfg.WarningPercent
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: c,
		logger: logger,
		jobs:   make(chan job, c.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < c.MaxWorkers; i++ {
		p.workers.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", c.MaxWorkers),
		zap.Int("queueSize", c.QueueSize))

	return p
}

func (p *Pool) worker() {
	defer p.workers.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

func (p *Pool) run(j job) {
	p.active.Add(1)
	defer p.active.Add(-1)

	if active := p.active.Load(); float64(active) >= float64(p.config.MaxWorkers)*p.config.WarningPercent {
		p.logger.Warn("worker pool approaching capacity",
			zap.Int64("activeCount", active),
			zap.Int("maxWorkers", p.config.MaxWorkers))
	}

	start := time.Now()
	var err error
	select {
	case <-j.ctx.Done():
		err = ErrTaskCancelled
	default:
		err = p.call(j)
	}

	if err != nil {
		p.failed.Add(1)
		p.logger.Debug("worker pool task failed",
			zap.String("task", j.name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	} else {
		p.completed.Add(1)
	}

	if j.done != nil {
		j.done <- err
	}
}

// call 执行任务并把 panic 转换为错误，单个任务崩溃不影响 worker
func (p *Pool) call(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic",
				zap.String("task", j.name),
				zap.Any("panic", r),
				zap.Stack("stack"))
			err = errors.New("task panic")
		}
	}()
	return j.fn(j.ctx)
}

func (p *Pool) enqueue(j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}
	select {
	case p.jobs <- j:
		return nil
	default:
		return ErrWorkerPoolFull
	}
}

// Submit 提交任务并等待完成
func (p *Pool) Submit(ctx context.Context, name string, fn func(context.Context) error) error {
	done := make(chan error, 1)
	if err := p.enqueue(job{name: name, ctx: ctx, fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return ErrWorkerPoolClosed
	}
}

// SubmitAsync 提交任务后立即返回，只在池满或关闭时返回错误
func (p *Pool) SubmitAsync(ctx context.Context, name string, fn func(context.Context) error) error {
	return p.enqueue(job{name: name, ctx: ctx, fn: fn})
}

func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Shutdown 停止接收新任务并等待队列中的任务执行完，ctx 超时后强制取消
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.logger.Info("worker pool shutting down",
		zap.Int64("activeCount", p.active.Load()),
		zap.Int("queuedCount", len(p.jobs)))

	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool shutdown completed")
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("worker pool shutdown timeout, forcing cancellation")
		return ctx.Err()
	}
}

// Metrics 任务池指标
type Metrics struct {
	MaxWorkers    int
	ActiveCount   int64
	QueuedCount   int
	QueueCapacity int
	Completed     int64
	Failed        int64
	IsClosed      bool
}

func (p *Pool) GetMetrics() Metrics {
	return Metrics{
		MaxWorkers:    p.config.MaxWorkers,
		ActiveCount:   p.active.Load(),
		QueuedCount:   len(p.jobs),
		QueueCapacity: p.config.QueueSize,
		Completed:     p.completed.Load(),
		Failed:        p.failed.Load(),
		IsClosed:      p.IsClosed(),
	}
}
