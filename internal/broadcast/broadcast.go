// Package broadcast fans state changes out to registered callbacks.
package broadcast

import "sync"

// Listeners is a set of callbacks. The zero value is ready to use.
type Listeners[T any] struct {
	mu    sync.Mutex
	next  int
	funcs map[int]func(T)
}

// Add registers fn and returns a func that unregisters it.
func (l *Listeners[T]) Add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.funcs == nil {
		l.funcs = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.funcs[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.funcs, id)
		l.mu.Unlock()
	}
}

// Notify calls every registered func with value. Callbacks run on the
// caller's goroutine, outside the lock.
func (l *Listeners[T]) Notify(value T) {
	l.mu.Lock()
	funcs := make([]func(T), 0, len(l.funcs))
	for _, fn := range l.funcs {
		funcs = append(funcs, fn)
	}
	l.mu.Unlock()

	for _, fn := range funcs {
		fn(value)
	}
}
