package pq

import "testing"

func TestPriorityQueueOrderAndDedup(t *testing.T) {
	q := Empty(func(a, b int) bool { return a < b })
	for _, x := range []int{5, 1, 4, 1, 3, 5} {
		q.Add(x)
	}

	if q.Len() != 4 {
		t.Fatalf("duplicates were queued: Len() = %d", q.Len())
	}

	var got []int
	for !q.IsEmpty() {
		got = append(got, q.GetNext())
	}
	expected := []int{1, 3, 4, 5}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("dequeued %v, expected %v", got, expected)
		}
	}

	q.Add(3)
	if q.GetNext() != 3 {
		t.Error("an element can be queued again after it was dequeued")
	}
}

func TestPriorityQueueHeapOrder(t *testing.T) {
	q := Empty(func(a, b int) bool { return a > b })
	for x := 0; x < 100; x++ {
		q.Add((x * 37) % 100)
	}
	prev := 100
	for !q.IsEmpty() {
		x := q.GetNext()
		if x >= prev {
			t.Fatalf("dequeued %d after %d", x, prev)
		}
		prev = x
	}
	if prev != 0 {
		t.Errorf("last dequeued %d, expected 0", prev)
	}
}
