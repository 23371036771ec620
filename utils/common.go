package utils

import (
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrInvalidOption = errors.New("invalid option")

// TimeTrack logs how long the operation started at start has taken.
func TimeTrack(log *zap.Logger, start time.Time, name string) {
	log.Info("finished", zap.String("task", name), zap.Duration("took", time.Since(start)))
}

// IDGenerator hands out unique, monotonically increasing identifiers.
// It is safe for concurrent use; one generator is shared by every
// analysis in the process.
type IDGenerator struct {
	next atomic.Int64
}

// NewIDGenerator creates a generator whose first identifier is start.
func NewIDGenerator(start int) *IDGenerator {
	g := new(IDGenerator)
	g.next.Store(int64(start))
	return g
}

// Next returns a fresh identifier.
func (g *IDGenerator) Next() int {
	return int(g.next.Add(1) - 1)
}

// Peek returns the identifier the next call to Next will produce.
func (g *IDGenerator) Peek() int {
	return int(g.next.Load())
}
