// Package worklist runs first-in first-out worklist iterations.
package worklist

// Worklist is a FIFO queue of pending elements.
type Worklist[T any] struct {
	list []T
}

// Start runs do on start and on everything do adds, in FIFO order.
func Start[T any](start T, do func(next T, add func(T))) {
	StartV([]T{start}, do)
}

// StartV is Start for several initial elements.
func StartV[T any](start []T, do func(next T, add func(T))) {
	w := &Worklist[T]{list: append([]T(nil), start...)}
	w.Process(do)
}

func (w *Worklist[T]) Add(el T) {
	w.list = append(w.list, el)
}

func (w *Worklist[T]) IsEmpty() bool {
	return len(w.list) == 0
}

// GetNext removes the oldest element. It returns the zero value when
// the worklist is empty.
func (w *Worklist[T]) GetNext() (next T) {
	if w.IsEmpty() {
		return
	}
	next, w.list = w.list[0], w.list[1:]
	return next
}

// Process drains the worklist.
func (w *Worklist[T]) Process(do func(next T, add func(T))) {
	for !w.IsEmpty() {
		do(w.GetNext(), w.Add)
	}
}
