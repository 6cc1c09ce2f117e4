package pubsub

import "sync"

// Subject is an in-process multicast value stream. It always holds a current
// value; subscribers receive that value on subscription and every later
// publish, in commit order.
//
// Listeners run synchronously on the publishing goroutine and must not
// publish to the same Subject.
type Subject[T any] struct {
	deliver sync.Mutex

	mu        sync.RWMutex
	value     T
	listeners []listener[T]
	nextID    uint64
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// NewSubject builds a Subject seeded with initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Value returns the most recently published value.
func (s *Subject[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Publish commits v and hands it to every current listener.
func (s *Subject[T]) Publish(v T) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.value = v
	snapshot := make([]listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
}

// Update computes the next value from the current one and publishes it as a
// single commit.
func (s *Subject[T]) Update(fn func(T) T) T {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	snapshot := make([]listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(next)
	}
	return next
}

// PublishChange publishes v only when same reports it differs from the
// current value, and reports whether it did.
func (s *Subject[T]) PublishChange(v T, same func(a, b T) bool) bool {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if same(s.value, v) {
		s.mu.Unlock()
		return false
	}
	s.value = v
	snapshot := make([]listener[T], len(s.listeners))
	copy(snapshot, s.listeners)
	s.mu.Unlock()

	for _, l := range snapshot {
		l.fn(v)
	}
	return true
}

// Subscribe registers fn and immediately replays the current value to it.
// The returned func removes the listener; calling it twice is harmless.
func (s *Subject[T]) Subscribe(fn func(T)) (cancel func()) {
	if fn == nil {
		return func() {}
	}

	s.deliver.Lock()
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()
	fn(current)
	s.deliver.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Listeners returns the number of registered listeners.
func (s *Subject[T]) Listeners() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listeners)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}
