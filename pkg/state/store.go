// Package state holds the client session state behind an explicit store
// with Get/Set/Update/Subscribe, so side effects such as persistence are
// ordinary subscribers instead of hidden watchers.
package state

import "sync"

// Listener receives the value before and after a change.
type Listener[T any] func(prev, next T)

// Store is safe for concurrent use. Listeners run synchronously, in the
// order the changes were applied, and must not call back into the store.
type Store[T any] struct {
	mu       sync.RWMutex
	notifyMu sync.Mutex
	value    T
	subs     map[int]Listener[T]
	nextID   int
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{
		value: initial,
		subs:  make(map[int]Listener[T]),
	}
}

func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn atomically and returns the new value.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	prev := s.value
	next := fn(prev)
	s.value = next
	subs := s.snapshot()

	// Hand over to the notify lock before releasing mu so listeners see
	// changes in the order they were made.
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, l := range subs {
		l(prev, next)
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// snapshot returns listeners in registration order. Caller holds mu.
func (s *Store[T]) snapshot() []Listener[T] {
	out := make([]Listener[T], 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
