// Package eventbus provides a typed, synchronous publish/subscribe bus
// Package eventbus 提供类型化的同步发布/订阅总线
package eventbus

import (
	"sync"
)

// Handler receives published events
// Handler 接收发布的事件
type Handler[T any] func(T)

// Bus delivers each published event to the handlers registered at publish time,
// in subscription order, on the publisher's goroutine.
// Bus 在发布者协程上按订阅顺序将事件投递给发布时已注册的处理器
type Bus[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler[T]
	order    []uint64
}

func New[T any]() *Bus[T] {
	return &Bus[T]{handlers: make(map[uint64]Handler[T])}
}

// Subscribe registers h and returns a func that removes it; calling it twice is harmless
// Subscribe 注册 h 并返回取消订阅函数，重复调用无副作用
func (b *Bus[T]) Subscribe(h Handler[T]) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish calls every current handler synchronously.
// Handlers may subscribe or unsubscribe during delivery; changes apply from the next Publish.
// Publish 同步调用当前所有处理器，投递期间的订阅变更从下一次发布生效
func (b *Bus[T]) Publish(event T) {
	b.mu.RLock()
	snapshot := make([]Handler[T], 0, len(b.order))
	for _, id := range b.order {
		snapshot = append(snapshot, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range snapshot {
		h(event)
	}
}

// Len returns the number of current subscribers
// Len 返回当前订阅者数量
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
