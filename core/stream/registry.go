package stream

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Registry is an ordered collection of observers keyed by opaque tokens.
//
// Add and Remove are expected to be called from a single writer (the owning
// mailbox loop). Next, Error and Completed take a snapshot under a read lock
// and may be called from any number of goroutines concurrently.
type Registry[T any] struct {
	mu      sync.RWMutex
	log     *slog.Logger
	entries []entry[T]
}

type entry[T any] struct {
	token string
	obs   Observer[T]
}

// NewRegistry creates an empty registry. A nil logger defaults to
// slog.Default().
func NewRegistry[T any](log *slog.Logger) *Registry[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Registry[T]{log: log}
}

// Add registers obs under token, in registration order. Duplicate observers
// are permitted; each registration broadcasts independently.
func (r *Registry[T]) Add(token string, obs Observer[T]) {
	r.mu.Lock()
	r.entries = append(r.entries, entry[T]{token: token, obs: obs})
	r.mu.Unlock()
}

// Remove deletes the first registration matching token. No-op if absent.
func (r *Registry[T]) Remove(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.token == token {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of current registrations.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Next broadcasts value to all current observers in registration order.
func (r *Registry[T]) Next(value T) {
	for _, e := range r.snapshot() {
		r.safeCall(e.token, func() { e.obs.OnNext(value) })
	}
}

// Error broadcasts err to all current observers in registration order.
func (r *Registry[T]) Error(err error) {
	for _, e := range r.snapshot() {
		r.safeCall(e.token, func() { e.obs.OnError(err) })
	}
}

// Completed notifies all current observers that the producer terminated.
func (r *Registry[T]) Completed() {
	for _, e := range r.snapshot() {
		r.safeCall(e.token, func() { e.obs.OnCompleted() })
	}
}

func (r *Registry[T]) snapshot() []entry[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]entry[T], len(r.entries))
	copy(out, r.entries)
	return out
}

// safeCall contains a panicking observer so the broadcast continues with the
// remaining observers.
func (r *Registry[T]) safeCall(token string, f func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("observer callback panicked",
				slog.String("token", token),
				slog.Any("recovered", rec),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	f()
}
