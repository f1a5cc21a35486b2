package iocraft

import (
	"slices"
	"sync"
)

// Store holds a piece of state of type S with change notification. Services compose it
// by embedding and list StoreLayers in their schema to expose it on their facade.
//
// The zero Store is not usable, create one with NewStore.
type Store[S any] struct {
	mu      sync.Mutex
	initial S
	state   S

	watchers []*watcher[S]
}

type watcher[S any] struct {
	fn func(next, prev S)
}

// NewStore creates a store holding a copy of initial. Reset returns to it.
func NewStore[S any](initial S) Store[S] {
	return Store[S]{initial: initial, state: initial}
}

// State returns a copy of the current state.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Replace swaps the whole state.
func (s *Store[S]) Replace(state S) {
	s.update(func(current *S) { *current = state })
}

// SetState applies patch to the state and notifies watchers.
func (s *Store[S]) SetState(patch func(state *S)) {
	s.update(patch)
}

// Reset restores the initial state and notifies watchers.
func (s *Store[S]) Reset() {
	s.update(func(current *S) { *current = s.initial })
}

func (s *Store[S]) update(patch func(state *S)) {
	s.mu.Lock()
	prev := s.state
	patch(&s.state)
	next := s.state
	watchers := slices.Clone(s.watchers)
	s.mu.Unlock()

	// watchers may update the store again
	for _, w := range watchers {
		w.fn(next, prev)
	}
}

// Watch calls fn after every state change. The returned function stops watching.
func (s *Store[S]) Watch(fn func(next, prev S)) func() {
	w := &watcher[S]{fn: fn}

	s.mu.Lock()
	s.watchers = append(s.watchers, w)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.watchers = slices.DeleteFunc(s.watchers, func(other *watcher[S]) bool { return other == w })
	}
}

// WatchEffect calls fn with the current state immediately and after every change.
func (s *Store[S]) WatchEffect(fn func(state S)) func() {
	fn(s.State())

	return s.Watch(func(next, _ S) { fn(next) })
}

// Dispose drops every watcher. It is called when a component-scoped service embedding
// the store is torn down.
func (s *Store[S]) Dispose() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers = nil
	return nil
}

// Select returns a getter for a part of the state.
func Select[S any, V any](s *Store[S], selector func(S) V) func() V {
	return func() V {
		return selector(s.State())
	}
}

// SelectChanges calls fn whenever the selected part of the state changes.
func SelectChanges[S any, V comparable](s *Store[S], selector func(S) V, fn func(next, prev V)) func() {
	return s.Watch(func(next, prev S) {
		n, p := selector(next), selector(prev)
		if n != p {
			fn(n, p)
		}
	})
}

// StoreLayers exposes the store embedded in T on T's facade: a "state" accessor and the
// getState, setState, replaceState, reset, watch and watchEffect methods.
func StoreLayers[T any, S any](ref func(*T) *Store[S]) []Layer[T] {
	return Embed(ref, NewLayer("Store",
		Accessor("state", (*Store[S]).State, (*Store[S]).Replace),
		Method("getState", func(s *Store[S]) any { return s.State }),
		Method("setState", func(s *Store[S]) any { return s.SetState }),
		Method("replaceState", func(s *Store[S]) any { return s.Replace }),
		Method("reset", func(s *Store[S]) any { return s.Reset }),
		Method("watch", func(s *Store[S]) any { return s.Watch }),
		Method("watchEffect", func(s *Store[S]) any { return s.WatchEffect }),
	))
}
