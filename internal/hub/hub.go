// Package hub fans a single stream of values out to independent subscribers.
package hub

import (
	"log"
	"sync"
)

// Multiplexer delivers every published value to every subscriber in
// registration order. A panicking subscriber is logged and skipped; the
// others still see the value.
type Multiplexer[T any] struct {
	mu     sync.RWMutex
	subs   []*subscriber[T]
	nextID int
}

type subscriber[T any] struct {
	id   int
	name string
	fn   func(T)
}

// New creates an empty Multiplexer.
func New[T any]() *Multiplexer[T] {
	return &Multiplexer[T]{}
}

// Subscribe registers fn under name and returns a function that removes it.
// Registering never replaces an earlier subscriber.
func (m *Multiplexer[T]) Subscribe(name string, fn func(T)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, &subscriber[T]{id: id, name: name, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { m.remove(id) })
	}
}

func (m *Multiplexer[T]) remove(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.subs {
		if s.id == id {
			m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of subscribers.
func (m *Multiplexer[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

// Names returns subscriber names in delivery order.
func (m *Multiplexer[T]) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.subs))
	for i, s := range m.subs {
		names[i] = s.name
	}
	return names
}

// Publish delivers v synchronously to every subscriber.
func (m *Multiplexer[T]) Publish(v T) {
	m.mu.RLock()
	subs := append([]*subscriber[T](nil), m.subs...)
	m.mu.RUnlock()

	for _, s := range subs {
		deliver(s, v)
	}
}

func deliver[T any](s *subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[hub] subscriber %q panicked: %v", s.name, r)
		}
	}()
	s.fn(v)
}
