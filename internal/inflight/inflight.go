// Package inflight prevents a second submission of an action that is still
// waiting for the backend.
package inflight

import (
	"errors"
	"sort"
	"sync"
)

// ErrInFlight is returned when the same action is already running.
var ErrInFlight = errors.New("request already in progress")

// Tracker records which actions are running.
type Tracker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{active: make(map[string]struct{})}
}

// Begin marks key as running. ok is false when key is already running; the
// caller must then not issue the request. done releases the key and is safe
// to call more than once.
func (t *Tracker) Begin(key string) (done func(), ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, busy := t.active[key]; busy {
		return func() {}, false
	}
	t.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, key)
			t.mu.Unlock()
		})
	}, true
}

// Do runs fn unless key is already running, in which case it returns ErrInFlight.
func (t *Tracker) Do(key string, fn func() error) error {
	done, ok := t.Begin(key)
	if !ok {
		return ErrInFlight
	}
	defer done()
	return fn()
}

// Busy reports whether key is running.
func (t *Tracker) Busy(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, busy := t.active[key]
	return busy
}

// Active lists the running keys in sorted order.
func (t *Tracker) Active() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.active))
	for k := range t.active {
		keys = append(keys, k)
	}
	t.mu.Unlock()
	sort.Strings(keys)
	return keys
}
