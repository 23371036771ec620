package ast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrWrongKind is the sentinel wrapped by every KindError.
var ErrWrongKind = errors.New("wrong AST node kind")

// KindError reports a node of unexpected kind handed to an operation
// that requires specific kinds. It is a precondition violation of the
// caller, not an approximation decision.
type KindError struct {
	Op   string
	Want []Kind
	Got  Kind
	ID   int
}

func (e *KindError) Error() string {
	want := make([]string, len(e.Want))
	for i, k := range e.Want {
		want[i] = k.String()
	}
	return fmt.Sprintf("%s: node %d is %s, expected %s",
		e.Op, e.ID, e.Got, strings.Join(want, " or "))
}

func (e *KindError) Unwrap() error { return ErrWrongKind }

// Expect returns a KindError when n is not one of the wanted kinds.
func Expect(op string, n *Node, want ...Kind) error {
	if n == nil {
		return fmt.Errorf("%s: %w: nil node", op, ErrWrongKind)
	}
	for _, k := range want {
		if n.Kind == k {
			return nil
		}
	}
	return &KindError{Op: op, Want: want, Got: n.Kind, ID: n.ID}
}
