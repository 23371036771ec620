package tree

import (
	"math/rand"
	"testing"

	"github.com/benbjohnson/immutable"
)

var intHasher = immutable.NewHasher(0)

// collidingHasher sends every key to the same leaf.
type collidingHasher struct{}

func (collidingHasher) Hash(int) uint32     { return 7 }
func (collidingHasher) Equal(a, b int) bool { return a == b }

func maxMerge(a, b int) (int, bool) {
	if a >= b {
		return a, a == b
	}
	return b, false
}

func intEq(a, b int) bool { return a == b }

func TestInsertLookupRemove(t *testing.T) {
	for _, test := range []struct {
		name   string
		hasher immutable.Hasher[int]
	}{
		{"spread", intHasher},
		{"colliding", collidingHasher{}},
	} {
		t.Run(test.name, func(t *testing.T) {
			tr := NewTree[int, int](test.hasher)
			for k := 0; k < 50; k++ {
				tr = tr.Insert(k, k*k)
			}
			if tr.Size() != 50 {
				t.Fatalf("Size() = %d", tr.Size())
			}
			for k := 0; k < 50; k++ {
				if v, ok := tr.Lookup(k); !ok || v != k*k {
					t.Errorf("Lookup(%d) = %d, %v", k, v, ok)
				}
			}

			removed := tr.Remove(10).Remove(11)
			if _, ok := removed.Lookup(10); ok {
				t.Error("10 should be removed")
			}
			if _, ok := tr.Lookup(10); !ok {
				t.Error("removing from a copy must not affect the original")
			}
			if removed.Size() != 48 {
				t.Errorf("Size() after remove = %d", removed.Size())
			}
		})
	}
}

func TestMergeKeepsSharedStructure(t *testing.T) {
	base := NewTree[int, int](intHasher)
	for k := 0; k < 100; k++ {
		base = base.Insert(k, rand.Intn(10))
	}

	if merged := base.Merge(base, maxMerge); !merged.Equal(base, intEq) {
		t.Error("merging a tree with itself changed it")
	}

	a := base.Insert(5, 100)
	b := base.Insert(200, 1)
	ab, ba := a.Merge(b, maxMerge), b.Merge(a, maxMerge)
	if !ab.Equal(ba, intEq) {
		t.Errorf("merge is not commutative:\n%v\n%v", ab, ba)
	}
	if v, _ := ab.Lookup(5); v != 100 {
		t.Errorf("merged value of 5 = %d", v)
	}
	if _, ok := ab.Lookup(200); !ok {
		t.Error("merge dropped key 200")
	}
}

func TestInsertOrMergeUnchanged(t *testing.T) {
	tr := NewTree[int, int](intHasher).Insert(1, 10)
	same := tr.InsertOrMerge(1, 3, maxMerge)
	if v, _ := same.Lookup(1); v != 10 {
		t.Errorf("InsertOrMerge lowered the value to %d", v)
	}
	if !same.Equal(tr, intEq) {
		t.Error("InsertOrMerge with a smaller value should be a no-op")
	}
}

func TestAnyAndSortedKeys(t *testing.T) {
	tr := NewTree[int, int](intHasher)
	for _, k := range []int{9, 3, 7, 1} {
		tr = tr.Insert(k, -k)
	}

	keys := tr.SortedKeys(func(a, b int) bool { return a < b })
	expected := []int{1, 3, 7, 9}
	for i := range expected {
		if keys[i] != expected[i] {
			t.Fatalf("SortedKeys() = %v", keys)
		}
	}

	if !tr.Any(func(_, v int) bool { return v == -7 }) {
		t.Error("Any missed -7")
	}
	if tr.Any(func(k, _ int) bool { return k == 2 }) {
		t.Error("Any found a missing key")
	}
}

func TestStringIsDeterministic(t *testing.T) {
	a, b := NewTree[int, int](intHasher), NewTree[int, int](collidingHasher{})
	for _, k := range []int{4, 2, 3} {
		a = a.Insert(k, k)
	}
	for _, k := range []int{3, 4, 2} {
		b = b.Insert(k, k)
	}

	if a.String() != b.String() {
		t.Errorf("renderings differ:\n%s\n%s", a, b)
	}
}

func TestMergeReturnsInputWhenUnchanged(t *testing.T) {
	base := NewTree[int, int](intHasher)
	for k := 0; k < 100; k++ {
		base = base.Insert(k, k)
	}
	if base.Merge(base, maxMerge).root != base.root {
		t.Error("merging a tree with itself allocated a new root")
	}
	if base.Merge(base.Remove(42), maxMerge).root != base.root {
		t.Error("merging a subsumed tree allocated a new root")
	}
	if !base.Remove(42).Insert(42, 42).Equal(base, intEq) {
		t.Error("re-inserting a removed key changed the tree")
	}
	if NewTree[int, int](intHasher).Insert(1, 1).Remove(1).root != nil {
		t.Error("removing the last key left nodes behind")
	}
}
