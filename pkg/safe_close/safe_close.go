// Package safe_close coordinates graceful shutdown of attached workers
// Package safe_close 协调已挂载工作协程的优雅关闭
package safe_close

import (
	"sync"
)

// SafeClose broadcasts one close signal to every attached worker and waits for them
// SafeClose 向所有挂载的工作协程广播一次关闭信号并等待其退出
type SafeClose struct {
	closeSignal chan struct{}
	once        sync.Once
	wg          sync.WaitGroup

	mu  sync.Mutex
	err error
}

func NewSafeClose() *SafeClose {
	return &SafeClose{closeSignal: make(chan struct{})}
}

// Attach runs fn in its own goroutine; fn must call done when it returns
// Attach 在独立协程中运行 fn，fn 退出时必须调用 done
func (s *SafeClose) Attach(fn func(done func(), closeSignal <-chan struct{})) {
	s.wg.Add(1)
	go fn(s.wg.Done, s.closeSignal)
}

// SendCloseSignal closes the signal channel once; the first non-nil err is kept
// SendCloseSignal 只关闭一次信号通道，保留第一个非空错误
func (s *SafeClose) SendCloseSignal(err error) {
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
	}
	s.once.Do(func() { close(s.closeSignal) })
}

// Done is closed when the close signal was sent
// Done 在关闭信号发出后关闭
func (s *SafeClose) Done() <-chan struct{} {
	return s.closeSignal
}

// WaitClosed blocks until every attached worker returned
// WaitClosed 阻塞直到所有挂载的协程退出
func (s *SafeClose) WaitClosed() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
