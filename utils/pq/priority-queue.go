// Package pq provides a priority queue that holds each element at most once.
package pq

// PriorityQueue is a binary min-heap ordered by less. Adding an element
// that is already queued has no effect.
type PriorityQueue[T comparable] struct {
	items  []T
	queued map[T]struct{}
	less   func(T, T) bool
}

// Empty creates a queue that dequeues the least element first.
func Empty[T comparable](less func(T, T) bool) PriorityQueue[T] {
	return PriorityQueue[T]{queued: make(map[T]struct{}), less: less}
}

func (p *PriorityQueue[T]) Len() int { return len(p.items) }

func (p *PriorityQueue[T]) IsEmpty() bool { return len(p.items) == 0 }

func (p *PriorityQueue[T]) Add(x T) {
	if _, ok := p.queued[x]; ok {
		return
	}
	p.queued[x] = struct{}{}
	p.items = append(p.items, x)
	p.up(len(p.items) - 1)
}

// GetNext removes and returns the least element. It panics on an empty queue.
func (p *PriorityQueue[T]) GetNext() T {
	top := p.items[0]
	last := len(p.items) - 1
	p.items[0] = p.items[last]
	p.items = p.items[:last]
	if last > 0 {
		p.down(0)
	}
	delete(p.queued, top)
	return top
}

func (p *PriorityQueue[T]) up(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !p.less(p.items[i], p.items[parent]) {
			return
		}
		p.items[i], p.items[parent] = p.items[parent], p.items[i]
		i = parent
	}
}

func (p *PriorityQueue[T]) down(i int) {
	for {
		least := i
		for _, c := range [2]int{2*i + 1, 2*i + 2} {
			if c < len(p.items) && p.less(p.items[c], p.items[least]) {
				least = c
			}
		}
		if least == i {
			return
		}
		p.items[i], p.items[least] = p.items[least], p.items[i]
		i = least
	}
}
