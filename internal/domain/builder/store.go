// Package builder holds the editing-session substrate of the template
// builder: an observable state container with equality-gated selectors,
// sessions that own an in-progress schema, and the HTTP surface for both.
package builder

import (
	"fmt"
	"sync"
)

// Store is a single mutable state container with synchronous subscription.
// S must be comparable (in practice a pointer to the state struct) so the
// identity short-circuit can decide whether anything changed: Set with the
// current state reference is a no-op and notifies nobody. All state
// producers must therefore allocate a new state only when content changes.
type Store[S comparable] struct {
	mu        sync.Mutex
	state     S
	listeners map[int]func()
	nextID    int
}

// NewStore creates a store seeded with the initial state.
func NewStore[S comparable](initial S) *Store[S] {
	return &Store[S]{state: initial, listeners: make(map[int]func())}
}

// State returns the current state reference.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Set replaces the state. Setting the identical reference is a no-op:
// listeners are not notified and false is returned.
func (s *Store[S]) Set(next S) bool {
	s.mu.Lock()
	if next == s.state {
		s.mu.Unlock()
		return false
	}
	s.state = next
	fns := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true
}

// Update derives the next state from the current one. The updater must be
// pure; if it returns an error or panics, the prior state is retained and
// listeners are not notified. Mutations run to completion before any
// listener observes the new state.
func (s *Store[S]) Update(fn func(S) (S, error)) (changed bool, err error) {
	s.mu.Lock()
	prev := s.state

	next, err := func() (next S, err error) {
		defer func() {
			if r := recover(); r != nil {
				next = prev
				err = fmt.Errorf("store updater panicked: %v", r)
			}
		}()
		return fn(prev)
	}()
	if err != nil || next == prev {
		s.mu.Unlock()
		return false, err
	}

	s.state = next
	fns := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return true, nil
}

// Subscribe registers a listener invoked synchronously after every accepted
// state change. The returned function unsubscribes it.
func (s *Store[S]) Subscribe(listener func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store[S]) snapshotListeners() []func() {
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// Selector caches a derived value and only hands out a new one when the
// equality function says it actually changed, letting readers subscribe to
// a small slice of a large, frequently-mutated state tree.
type Selector[S comparable, T any] struct {
	mu    sync.Mutex
	store *Store[S]
	sel   func(S) T
	eq    func(a, b T) bool
	last  T
	have  bool
	dirty bool
	unsub func()
}

// NewSelector builds a selector over the store. eq decides whether a newly
// computed value supersedes the cached one; pass Identity for reference/
// value identity or ShallowMapEqual for one-level map comparison.
func NewSelector[S comparable, T any](store *Store[S], sel func(S) T, eq func(a, b T) bool) *Selector[S, T] {
	s := &Selector[S, T]{store: store, sel: sel, eq: eq, dirty: true}
	s.unsub = store.Subscribe(func() {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	})
	return s
}

// Get returns the derived value, recomputing only after a store change and
// returning the previously cached value whenever the recomputation is equal
// under eq.
func (s *Selector[S, T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty && s.have {
		return s.last
	}
	next := s.sel(s.store.State())
	s.dirty = false
	if s.have && s.eq(s.last, next) {
		return s.last
	}
	s.last = next
	s.have = true
	return next
}

// Close detaches the selector from the store.
func (s *Selector[S, T]) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// Identity is the default equality: plain == on comparable values.
func Identity[T comparable](a, b T) bool { return a == b }

// ShallowMapEqual compares own keys one level deep. Values of
// non-comparable kinds, slices from multiselect bindings included, always
// count as a change.
func ShallowMapEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !scalarEqual(av, bv) {
			return false
		}
	}
	return true
}

// ShallowSliceEqual compares slices element-wise with identity.
func ShallowSliceEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
