package absint

import (
	"errors"
	"fmt"
)

var ErrNoCFG = errors.New("no CFG for function")

// CFGError reports a function without a CFG.
type CFGError struct {
	Function int
}

func (e *CFGError) Error() string {
	return fmt.Sprintf("function #%d: %v", e.Function, ErrNoCFG)
}

func (e *CFGError) Unwrap() error { return ErrNoCFG }
