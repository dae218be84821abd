// Package writequeue provides per-key FIFO write queues
// Package writequeue 提供按 key 串行的 FIFO 写队列
// Used by the dev chain to order transactions of the same sender like an account nonce
// 开发链使用它按发送者串行处理交易，等价于账户 nonce 排序
package writequeue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrWriteQueueFull returned when the queue of a key is full
	// ErrWriteQueueFull 当某个 key 的队列已满时返回
	ErrWriteQueueFull = errors.New("write queue is full")
	// ErrWriteQueueClosed returned when the manager is closed
	// ErrWriteQueueClosed 当写队列管理器已关闭时返回
	ErrWriteQueueClosed = errors.New("write queue is closed")
	// ErrWriteTimeout returned when a blocking write waits longer than WriteTimeout
	// ErrWriteTimeout 当阻塞写等待超过 WriteTimeout 时返回
	ErrWriteTimeout = errors.New("write operation timeout")
)

// Config write queue configuration
// Config 写队列配置
type Config struct {
	// QueueCapacity per-key queue capacity, default 64
	// QueueCapacity 每个 key 的队列容量，默认 64
	QueueCapacity int
	// WriteTimeout max wait of Execute, default 30 seconds
	// WriteTimeout Execute 的最长等待时间，默认 30 秒
	WriteTimeout time.Duration
	// IdleTimeout idle queues are released after this, default 10 minutes
	// IdleTimeout 空闲队列在此时间后释放，默认 10 分钟
	IdleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueCapacity: 64,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   10 * time.Minute,
	}
}

type writeOp struct {
	ctx    context.Context
	fn     func() error
	result chan error
}

// keyQueue single key queue
// keyQueue 单个 key 的队列
type keyQueue struct {
	key      string
	ch       chan writeOp
	lastUsed atomic.Int64
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func (q *keyQueue) stop() {
	q.stopOnce.Do(func() { close(q.stopCh) })
}

// Manager owns the queues of all keys
// Manager 管理所有 key 的写队列
type Manager struct {
	config Config
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*keyQueue
	closed bool

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// New creates a write queue manager, nil cfg uses DefaultConfig
// New 创建写队列管理器，cfg 为 nil 时使用默认配置
func New(cfg *Config, logger *zap.Logger) *Manager {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.QueueCapacity > 0 {
			c.QueueCapacity = cfg.QueueCapacity
		}
		if cfg.WriteTimeout > 0 {
			c.WriteTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.IdleTimeout = cfg.IdleTimeout
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:      c,
		logger:      logger,
		queues:      make(map[string]*keyQueue),
		cleanupStop: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	go m.cleanupLoop()

	m.logger.Info("write queue manager started",
		zap.Int("queueCapacity", c.QueueCapacity),
		zap.Duration("idleTimeout", c.IdleTimeout))
	return m
}

// Enqueue appends fn to the queue of key and returns without waiting.
// The returned channel receives the result of fn exactly once.
// Enqueue 将 fn 追加到 key 的队列后立即返回，返回的通道只会收到一次 fn 的结果
func (m *Manager) Enqueue(ctx context.Context, key string, fn func() error) (<-chan error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrWriteQueueClosed
	}

	q, ok := m.queues[key]
	if !ok {
		q = &keyQueue{
			key:    key,
			ch:     make(chan writeOp, m.config.QueueCapacity),
			stopCh: make(chan struct{}),
			done:   make(chan struct{}),
		}
		m.queues[key] = q
		go m.worker(q)
		m.logger.Debug("created write queue", zap.String("key", key))
	}
	q.lastUsed.Store(time.Now().UnixNano())

	result := make(chan error, 1)
	select {
	case q.ch <- writeOp{ctx: ctx, fn: fn, result: result}:
		return result, nil
	default:
		return nil, ErrWriteQueueFull
	}
}

// Execute enqueues fn and waits for its result
// Execute 入队并等待执行结果
func (m *Manager) Execute(ctx context.Context, key string, fn func() error) error {
	result, err := m.Enqueue(ctx, key, fn)
	if err != nil {
		return err
	}

	timer := time.NewTimer(m.config.WriteTimeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrWriteTimeout
	}
}

func (m *Manager) worker(q *keyQueue) {
	defer close(q.done)
	for {
		select {
		case op := <-q.ch:
			m.execute(q, op)
		case <-q.stopCh:
			// drain what was accepted before stop
			for {
				select {
				case op := <-q.ch:
					m.execute(q, op)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) execute(q *keyQueue, op writeOp) {
	q.lastUsed.Store(time.Now().UnixNano())
	if err := op.ctx.Err(); err != nil {
		op.result <- err
		return
	}
	op.result <- op.fn()
}

func (m *Manager) cleanupLoop() {
	defer close(m.cleanupDone)
	ticker := time.NewTicker(m.config.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-m.cleanupStop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

// cleanup releases queues idle for longer than IdleTimeout
// cleanup 释放空闲超过 IdleTimeout 的队列
func (m *Manager) cleanup() {
	threshold := time.Now().Add(-m.config.IdleTimeout).UnixNano()

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, q := range m.queues {
		if q.lastUsed.Load() < threshold && len(q.ch) == 0 {
			q.stop()
			delete(m.queues, key)
			m.logger.Debug("released idle write queue", zap.String("key", key))
		}
	}
}

// Shutdown stops accepting writes, drains accepted ones and waits for workers
// Shutdown 停止接收写入，执行完已接收的操作并等待 worker 退出
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	queues := make([]*keyQueue, 0, len(m.queues))
	for _, q := range m.queues {
		q.stop()
		queues = append(queues, q)
	}
	m.mu.Unlock()

	close(m.cleanupStop)
	m.logger.Info("write queue manager shutting down", zap.Int("queues", len(queues)))

	for _, q := range queues {
		select {
		case <-q.done:
		case <-ctx.Done():
			m.logger.Warn("write queue manager shutdown timeout")
			return ctx.Err()
		}
	}
	<-m.cleanupDone
	m.logger.Info("write queue manager shutdown completed")
	return nil
}

// QueueCount active queue count
// QueueCount 活跃队列数量
func (m *Manager) QueueCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues)
}

// QueuedCount operations waiting in the queue of key
// QueuedCount key 对应队列中等待的操作数
func (m *Manager) QueuedCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[key]; ok {
		return len(q.ch)
	}
	return 0
}

func (m *Manager) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
