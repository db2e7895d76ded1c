package sceneview

import (
	"slices"
	"sync"
)

// idleQueue holds single-shot callbacks for an IdleScheduler. It is safe for concurrent use.
type idleQueue struct {
	lock    sync.Mutex
	next    uint64
	entries []idleEntry
}

type idleEntry struct {
	id uint64
	fn func()
}

func (q *idleQueue) add(fn func()) uint64 {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.next++
	q.entries = append(q.entries, idleEntry{id: q.next, fn: fn})
	return q.next
}

func (q *idleQueue) remove(id uint64) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.entries = slices.DeleteFunc(q.entries, func(e idleEntry) bool { return e.id == id })
}

func (q *idleQueue) len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.entries)
}

// run runs the callbacks queued before the call and returns how many ran. Callbacks queued while
// running wait for the next call, and callbacks removed while running are skipped.
func (q *idleQueue) run() int {
	q.lock.Lock()
	queued := slices.Clone(q.entries)
	q.lock.Unlock()
	ran := 0
	for _, e := range queued {
		q.lock.Lock()
		i := slices.IndexFunc(q.entries, func(p idleEntry) bool { return p.id == e.id })
		if i >= 0 {
			q.entries = slices.Delete(q.entries, i, i+1)
		}
		q.lock.Unlock()
		if i >= 0 {
			e.fn()
			ran++
		}
	}
	return ran
}

// listeners is a registry of host callbacks, called in registration order.
type listeners[T any] struct {
	next    uint64
	entries map[uint64]T
}

func (l *listeners[T]) add(fn T) func() {
	if l.entries == nil {
		l.entries = map[uint64]T{}
	}
	l.next++
	id := l.next
	l.entries[id] = fn
	return func() { delete(l.entries, id) }
}

func (l *listeners[T]) each(call func(fn T)) {
	ids := make([]uint64, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := l.entries[id]; ok {
			call(fn)
		}
	}
}
