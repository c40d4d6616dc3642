// Package reconcile keeps the in-memory record lists that dashboards render.
// Optimistic edits, confirmed request results and realtime deliveries all go
// through the same Merge, so the outcome does not depend on which of them
// arrives first.
package reconcile

import (
	"sync"

	"github.com/CodeWithGeorg/Academic/internal/domain"
)

// List is a newest-first list of records with unique identities.
//
// Writes are last-applied-wins: Merge does not compare timestamps, so an
// older version delivered late replaces a newer one.
type List[T domain.Record] struct {
	mu      sync.RWMutex
	items   []T
	version uint64
}

func NewList[T domain.Record](records ...T) *List[T] {
	l := &List[T]{}
	l.Reset(records)
	return l
}

// Merge replaces the record with the same identity in place or, when none
// exists, prepends it. It reports whether the record was inserted.
func (l *List[T]) Merge(record T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.version++
	if i := l.indexOf(record.Identity()); i >= 0 {
		l.items[i] = record
		return false
	}
	l.items = append(l.items, record)
	copy(l.items[1:], l.items[:len(l.items)-1])
	l.items[0] = record
	return true
}

// Replace swaps a tentative entry for its confirmed record. When the
// confirmed identity already arrived by another path the tentative entry is
// dropped, so the two never coexist.
func (l *List[T]) Replace(tentativeID string, record T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.version++
	oldIdx := l.indexOf(tentativeID)
	newIdx := l.indexOf(record.Identity())
	switch {
	case newIdx >= 0:
		l.items[newIdx] = record
		if oldIdx >= 0 && oldIdx != newIdx {
			l.items = append(l.items[:oldIdx], l.items[oldIdx+1:]...)
		}
	case oldIdx >= 0:
		l.items[oldIdx] = record
	default:
		l.items = append([]T{record}, l.items...)
	}
}

// Remove drops the record with the given identity, if present.
func (l *List[T]) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.version++
	return true
}

// Reset replaces the whole list with the result of a full fetch. Duplicate
// identities keep their first occurrence.
func (l *List[T]) Reset(records []T) {
	items := make([]T, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		id := r.Identity()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		items = append(items, r)
	}

	l.mu.Lock()
	l.items = items
	l.version++
	l.mu.Unlock()
}

// Patch applies fn to the record with the given identity and returns the
// record as it was before. ok is false when the identity is absent.
func (l *List[T]) Patch(id string, fn func(T) T) (previous T, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return previous, false
	}
	previous = l.items[i]
	l.items[i] = fn(previous)
	l.version++
	return previous, true
}

func (l *List[T]) Get(id string) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.indexOf(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy safe to range over while merges continue.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Version increases on every change.
func (l *List[T]) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *List[T]) indexOf(id string) int {
	for i := range l.items {
		if l.items[i].Identity() == id {
			return i
		}
	}
	return -1
}
