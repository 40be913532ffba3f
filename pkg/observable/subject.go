// Package observable provides a stateful broadcast value: every new subscriber
// immediately receives the latest value, then every later change.
package observable

import "sync"

// Stream is the read side of a Subject.
type Stream[T any] interface {
	// Value returns the latest published value.
	Value() T

	// Subscribe registers fn, calls it once with the latest value and then on
	// every Publish until the returned cancel func is called.
	Subscribe(fn func(T)) (cancel func())
}

// Subject holds a value and delivers changes to subscribers synchronously, in
// subscription order. There is no buffering or coalescing: every Publish is
// seen by every subscriber registered at that moment.
//
// Subscribers may call Value from inside their callback but must not call
// Publish or Subscribe on the same Subject.
type Subject[T any] struct {
	// emitMu serialises delivery so subscribers observe publishes in order.
	emitMu sync.Mutex

	mu     sync.RWMutex
	value  T
	subs   []subscriber[T]
	nextID uint64
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewSubject returns a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

func (s *Subject[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Publish replaces the value and delivers it to all current subscribers.
func (s *Subject[T]) Publish(v T) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.value = v
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

func (s *Subject[T]) Subscribe(fn func(T)) (cancel func()) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Len reports the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}
