// Package observable provides a value holder that pushes every write to its
// subscribers. One owner writes through *Value; everyone else receives a
// Reader.
package observable

import "sync"

// Reader is the read-only side of a Value.
type Reader[T any] interface {
	Get() T
	// Subscribe calls fn with the current value and then with every value
	// written afterwards. The returned func cancels the subscription. fn must
	// not write to the value it is subscribed to.
	Subscribe(fn func(T)) (cancel func())
}

// Value holds the latest T and notifies subscribers on every Set, including
// writes that repeat the current value.
type Value[T any] struct {
	mu     sync.RWMutex
	cur    T
	nextID int
	subs   map[int]func(T)

	// notify serializes deliveries so subscribers see writes in order.
	notify sync.Mutex
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, subs: make(map[int]func(T))}
}

func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cur
}

func (v *Value[T]) Set(x T) {
	v.notify.Lock()
	defer v.notify.Unlock()

	v.mu.Lock()
	v.cur = x
	subs := make([]func(T), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn(x)
	}
}

func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.notify.Lock()
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	cur := v.cur
	v.mu.Unlock()
	fn(cur)
	v.notify.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// ReadOnly hides the write side of v.
func (v *Value[T]) ReadOnly() Reader[T] { return readOnly[T]{v} }

type readOnly[T any] struct{ v *Value[T] }

func (r readOnly[T]) Get() T { return r.v.Get() }
func (r readOnly[T]) Subscribe(fn func(T)) (cancel func()) { return r.v.Subscribe(fn) }
