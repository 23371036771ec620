package utils

import "github.com/benbjohnson/immutable"

// HashableEq is implemented by values that supply their own hash and
// equality, such as abstract addresses.
type HashableEq[T any] interface {
	Hash() uint32
	Equal(T) bool
}

type selfHasher[T HashableEq[T]] struct{}

func (selfHasher[T]) Hash(a T) uint32    { return a.Hash() }
func (selfHasher[T]) Equal(a, b T) bool { return a.Equal(b) }

// HashableHasher adapts the methods of T to an immutable.Hasher.
func HashableHasher[T HashableEq[T]]() immutable.Hasher[T] { return selfHasher[T]{} }

// StringHasher hashes property names.
func StringHasher() immutable.Hasher[string] { return immutable.NewHasher("") }

// HashCombine folds hashes in order, so permuting hs changes the result.
func HashCombine(hs ...uint32) (seed uint32) {
	for _, v := range hs {
		seed ^= v + 0x9e3779b9 + (seed << 6) + (seed >> 2)
	}
	return
}

// HashString is the 32 bit FNV-1a hash of s.
func HashString(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h = (h ^ uint32(s[i])) * 16777619
	}
	return h
}
