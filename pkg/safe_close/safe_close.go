// Package safe_close coordinates graceful shutdown of long-running goroutines
// Package safe_close 协调长期运行的 goroutine 的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached goroutine and waits for them
// SafeClose 向所有挂载的 goroutine 广播一次关闭信号并等待其退出
type SafeClose struct {
	closeSignal chan struct{}
	once        sync.Once
	wg          sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{
		closeSignal: make(chan struct{}),
	}
}

// Attach runs fn in a new goroutine; fn must call done when it returns
// Attach 在新的 goroutine 中运行 fn，fn 退出时必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	go fn(s.wg.Done, s.closeSignal)
}

// SendCloseSignal closes the signal channel once, recording the first non-nil error
// SendCloseSignal 仅关闭一次信号通道，并记录第一个非空错误
func (s *SafeClose) SendCloseSignal(err error) {
	s.mu.Lock()
	if err != nil && s.err == nil {
		s.err = err
	}
	s.mu.Unlock()

	s.once.Do(func() {
		close(s.closeSignal)
	})
}

// WaitClosed blocks until all attached goroutines have returned
// WaitClosed 阻塞直到所有挂载的 goroutine 退出
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Closed reports whether the close signal was sent
// Closed 是否已经发送关闭信号
func (s *SafeClose) Closed() bool {
	select {
	case <-s.closeSignal:
		return true
	default:
		return false
	}
}
