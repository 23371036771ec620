// Package tree implements persistent hash maps with structural sharing.
// Updates copy only the path to the changed key, so states that differ
// in a few bindings share most of their structure, and joins and
// comparisons of such states skip the shared parts.
package tree

import (
	"fmt"
	"sort"

	i "github.com/chai-analysis/chai/utils/indenter"

	"github.com/benbjohnson/immutable"
)

// The trie consumes the 32 bit hash of a key four bits per level.
// Keys whose hashes agree on all bits share a bucket at the last level.
const (
	bitsPerLevel = 4
	fanout       = 1 << bitsPerLevel
	levels       = 32 / bitsPerLevel
)

type entry[K, V any] struct {
	key   K
	value V
}

// node is an inner node above the last level and a bucket at it.
type node[K, V any] struct {
	children [fanout]*node[K, V]
	bucket   []entry[K, V]
}

func slot(hash uint32, level int) int {
	return int(hash>>(level*bitsPerLevel)) & (fanout - 1)
}

// Tree is a persistent map from K to V. The zero Tree is not usable;
// create trees with NewTree.
type Tree[K, V any] struct {
	hasher immutable.Hasher[K]
	root   *node[K, V]
}

func NewTree[K, V any](hasher immutable.Hasher[K]) Tree[K, V] {
	return Tree[K, V]{hasher: hasher}
}

// mergeFunc combines a new value with the value already present. The
// flag reports that the result equals the present value. It must be
// commutative and idempotent.
type mergeFunc[V any] func(a, b V) (V, bool)

type cmpFunc[V any] func(a, b V) bool

func (tree Tree[K, V]) Lookup(key K) (V, bool) {
	hash := tree.hasher.Hash(key)
	n := tree.root
	for level := 0; n != nil && level < levels; level++ {
		n = n.children[slot(hash, level)]
	}
	if n != nil {
		for _, e := range n.bucket {
			if tree.hasher.Equal(e.key, key) {
				return e.value, true
			}
		}
	}
	var zero V
	return zero, false
}

// Insert maps key to value, replacing any previous value.
func (tree Tree[K, V]) Insert(key K, value V) Tree[K, V] {
	return tree.InsertOrMerge(key, value, nil)
}

// InsertOrMerge maps key to value, or to f(value, previous) if key
// was mapped already. A nil f replaces the previous value.
func (tree Tree[K, V]) InsertOrMerge(key K, value V, f mergeFunc[V]) Tree[K, V] {
	tree.root, _ = tree.insert(tree.root, 0, tree.hasher.Hash(key), key, value, f)
	return tree
}

// insert reports false when n is returned unchanged.
func (tree Tree[K, V]) insert(n *node[K, V], level int, hash uint32, key K, value V, f mergeFunc[V]) (*node[K, V], bool) {
	if level == levels {
		if n == nil {
			return &node[K, V]{bucket: []entry[K, V]{{key, value}}}, true
		}
		for idx, e := range n.bucket {
			if !tree.hasher.Equal(e.key, key) {
				continue
			}
			v := value
			if f != nil {
				var same bool
				if v, same = f(value, e.value); same {
					return n, false
				}
			}
			bucket := append([]entry[K, V](nil), n.bucket...)
			bucket[idx].value = v
			return &node[K, V]{bucket: bucket}, true
		}
		bucket := append(append([]entry[K, V](nil), n.bucket...), entry[K, V]{key, value})
		return &node[K, V]{bucket: bucket}, true
	}

	s := slot(hash, level)
	var child *node[K, V]
	if n != nil {
		child = n.children[s]
	}
	child, changed := tree.insert(child, level+1, hash, key, value, f)
	if !changed {
		return n, false
	}
	cp := &node[K, V]{}
	if n != nil {
		*cp = *n
	}
	cp.children[s] = child
	return cp, true
}

// Remove unmaps key. The tree is returned as is if key is not mapped.
func (tree Tree[K, V]) Remove(key K) Tree[K, V] {
	if _, found := tree.Lookup(key); !found {
		return tree
	}
	tree.root = tree.remove(tree.root, 0, tree.hasher.Hash(key), key)
	return tree
}

// remove returns nil for nodes that become empty.
func (tree Tree[K, V]) remove(n *node[K, V], level int, hash uint32, key K) *node[K, V] {
	if level == levels {
		var bucket []entry[K, V]
		for _, e := range n.bucket {
			if !tree.hasher.Equal(e.key, key) {
				bucket = append(bucket, e)
			}
		}
		if len(bucket) == 0 {
			return nil
		}
		return &node[K, V]{bucket: bucket}
	}

	s := slot(hash, level)
	cp := *n
	cp.children[s] = tree.remove(n.children[s], level+1, hash, key)
	for _, c := range cp.children {
		if c != nil {
			return &cp
		}
	}
	return nil
}

// ForEach calls f on every key-value pair.
func (tree Tree[K, V]) ForEach(f func(key K, value V)) {
	var each func(*node[K, V])
	each = func(n *node[K, V]) {
		if n == nil {
			return
		}
		for _, e := range n.bucket {
			f(e.key, e.value)
		}
		for _, c := range n.children {
			each(c)
		}
	}
	each(tree.root)
}

// Merge joins two maps. Keys mapped in both are mapped to the result
// of f on the two values. Subtrees the maps share are not visited, and
// the result shares structure with the inputs wherever possible.
func (tree Tree[K, V]) Merge(other Tree[K, V], f mergeFunc[V]) Tree[K, V] {
	tree.root, _ = tree.merge(tree.root, other.root, 0, f)
	return tree
}

// merge reports true when a and b represent equal maps.
func (tree Tree[K, V]) merge(a, b *node[K, V], level int, f mergeFunc[V]) (*node[K, V], bool) {
	switch {
	case a == b:
		return a, true
	case a == nil:
		return b, false
	case b == nil:
		return a, false
	}

	if level == levels {
		var bucket []entry[K, V]
		changed := false
	OUTER:
		for _, eb := range b.bucket {
			current := a.bucket
			if bucket != nil {
				current = bucket
			}
			for idx, ea := range current {
				if !tree.hasher.Equal(ea.key, eb.key) {
					continue
				}
				v, same := f(eb.value, ea.value)
				if !same {
					if bucket == nil {
						bucket = append([]entry[K, V](nil), a.bucket...)
					}
					bucket[idx].value = v
					changed = true
				}
				continue OUTER
			}
			if bucket == nil {
				bucket = append([]entry[K, V](nil), a.bucket...)
			}
			bucket = append(bucket, eb)
			changed = true
		}
		if !changed {
			return a, len(a.bucket) == len(b.bucket)
		}
		return &node[K, V]{bucket: bucket}, false
	}

	var cp *node[K, V]
	equal := true
	for s := range a.children {
		c, same := tree.merge(a.children[s], b.children[s], level+1, f)
		equal = equal && same
		if c != a.children[s] {
			if cp == nil {
				cp = &node[K, V]{}
				*cp = *a
			}
			cp.children[s] = c
		}
	}
	switch {
	case equal:
		return a, true
	case cp == nil:
		return a, false
	case cp.children == b.children:
		return b, false
	}
	return cp, false
}

// Equal compares two maps, comparing values with f. Shared subtrees
// are equal without being visited.
func (tree Tree[K, V]) Equal(other Tree[K, V], f cmpFunc[V]) bool {
	return tree.equal(tree.root, other.root, 0, f)
}

func (tree Tree[K, V]) equal(a, b *node[K, V], level int, f cmpFunc[V]) bool {
	switch {
	case a == b:
		return true
	case a == nil || b == nil:
		return false
	}

	if level == levels {
		if len(a.bucket) != len(b.bucket) {
			return false
		}
	FOUND:
		for _, ea := range a.bucket {
			for _, eb := range b.bucket {
				if tree.hasher.Equal(ea.key, eb.key) {
					if !f(ea.value, eb.value) {
						return false
					}
					continue FOUND
				}
			}
			return false
		}
		return true
	}

	for s := range a.children {
		if !tree.equal(a.children[s], b.children[s], level+1, f) {
			return false
		}
	}
	return true
}

// Size counts the key-value pairs, in linear time.
func (tree Tree[K, V]) Size() (res int) {
	tree.ForEach(func(K, V) { res++ })
	return
}

// Any reports whether some key-value pair satisfies pred.
func (tree Tree[K, V]) Any(pred func(k K, v V) bool) (found bool) {
	tree.ForEach(func(k K, v V) {
		found = found || pred(k, v)
	})
	return
}

// SortedKeys returns the keys in the order given by less.
func (tree Tree[K, V]) SortedKeys(less func(a, b K) bool) []K {
	keys := make([]K, 0)
	tree.ForEach(func(k K, _ V) {
		keys = append(keys, k)
	})
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

// StringFiltered renders the pairs satisfying pred, sorted by their
// rendering so that equal maps print identically.
func (tree Tree[K, V]) StringFiltered(pred func(k K, v V) bool) string {
	buf := []string{}
	tree.ForEach(func(k K, v V) {
		if pred(k, v) {
			buf = append(buf, fmt.Sprintf("%v ↦ %v", k, v))
		}
	})
	sort.Strings(buf)
	return i.Indenter().Start("{").NestStrings(buf...).End("}")
}

func (tree Tree[K, V]) String() string {
	return tree.StringFiltered(func(K, V) bool { return true })
}
