// Package keylock provides mutual exclusion over dynamic string keys.
//
// A Locker hands out one mutex per key and forgets it once no caller holds or
// waits on it. Multi-key acquisition is always performed in sorted key order,
// so callers that lock overlapping key sets cannot deadlock each other.
package keylock

import (
	"context"
	"slices"
	"sync"
)

type entry struct {
	ch   chan struct{} // buffered(1); a value in the channel means held
	refs int
}

// Locker is a set of keyed mutexes. The zero value is not usable; call New.
type Locker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New creates an empty Locker.
func New() *Locker {
	return &Locker{entries: make(map[string]*entry)}
}

// LockContext acquires every key in sorted order, giving up when ctx is done.
// On error no key is held.
func (l *Locker) LockContext(ctx context.Context, keys ...string) (func(), error) {
	keys = Normalize(keys)

	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i])
		}
	}

	for _, key := range keys {
		e := l.acquireRef(key)
		select {
		case e.ch <- struct{}{}:
			held = append(held, key)
		case <-ctx.Done():
			l.dropRef(key)
			release()
			return func() {}, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

// Normalize returns keys sorted with duplicates removed. It is the order in
// which LockContext acquires them.
func Normalize(keys []string) []string {
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

func (l *Locker) acquireRef(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) dropRef(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	e := l.entries[key]
	l.mu.Unlock()

	<-e.ch
	l.dropRef(key)
}
