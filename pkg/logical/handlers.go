package logical

import "slices"

// handlerList is an ordered set of registered callbacks. Registration order
// is delivery order.
//
// Removal never writes into an existing backing array, so a dispatch sweep
// can hold on to the slice header it started with while handlers unsubscribe
// themselves or their siblings.
type handlerList[E any] struct {
	entries []handlerEntry[E]
	nextID  uint64
}

type handlerEntry[E any] struct {
	id uint64
	fn func(E)
}

// add registers fn and returns a function that removes it again.
// The returned function may be called any number of times.
func (l *handlerList[E]) add(fn func(E)) func() {
	if fn == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, handlerEntry[E]{id: id, fn: fn})
	return func() {
		l.remove(id)
	}
}

func (l *handlerList[E]) remove(id uint64) {
	idx := slices.IndexFunc(l.entries, func(e handlerEntry[E]) bool {
		return e.id == id
	})
	if idx < 0 {
		return
	}
	next := make([]handlerEntry[E], 0, len(l.entries)-1)
	next = append(next, l.entries[:idx]...)
	l.entries = append(next, l.entries[idx+1:]...)
}

// dispatch calls every handler registered when the sweep starts. A panic in
// a handler unwinds out of dispatch and the remaining handlers are skipped.
func (l *handlerList[E]) dispatch(e E) {
	sweep := l.entries
	for _, h := range sweep {
		h.fn(e)
	}
}
