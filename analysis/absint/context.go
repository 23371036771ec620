package absint

import (
	"fmt"
	"time"

	loc "github.com/chai-analysis/chai/analysis/location"
	"github.com/chai-analysis/chai/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnalysisContext carries everything a run of the driver needs besides
// its input. One context may be shared by the analyses of both versions
// of a file; nothing in it is mutated by the driver.
type AnalysisContext struct {
	// Shared source of fresh identifiers.
	IDs *utils.IDGenerator
	// Label of the differencer that classified the input trees.
	DiffMethod string

	// Wall-clock budget for one version. Zero disables the watchdog.
	TimeBudget time.Duration
	// Worklist steps allowed for a single run of one CFG.
	StepBudget int
	// Levels of un-invoked closures analysed after the script fixpoint.
	ReachableDepth int
	// Whether functions passed as arguments are analysed after the call.
	AnalyzeCallbacks bool

	TraceStrategy loc.Strategy

	Logger  *zap.Logger
	Metrics *Metrics
	Session uuid.UUID
}

// NewContext turns options into an analysis context. Impossible
// context sensitivities are reported as *location.ContextError.
func NewContext(opts utils.Options, ids *utils.IDGenerator) (*AnalysisContext, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	strategy := loc.Strategy{Name: opts.Trace, K: opts.K, H: opts.H}
	if _, err := strategy.New(0); err != nil {
		return nil, fmt.Errorf("configuring trace: %w", err)
	}

	if ids == nil {
		ids = utils.NewIDGenerator(0)
	}

	C := &AnalysisContext{
		IDs:              ids,
		DiffMethod:       opts.DiffMethod,
		TimeBudget:       opts.TimeBudget,
		StepBudget:       opts.StepBudget,
		ReachableDepth:   opts.ReachableDepth,
		AnalyzeCallbacks: !opts.NoCallbacks,
		TraceStrategy:    strategy,
		Logger:           zap.NewNop(),
		Session:          uuid.New(),
	}
	if opts.Metrics {
		C.Metrics = NewMetrics()
	}
	return C, nil
}

// WithLogger returns a copy of the context logging to log.
func (C AnalysisContext) WithLogger(log *zap.Logger) *AnalysisContext {
	C.Logger = log
	return &C
}

func (C *AnalysisContext) logger() *zap.Logger {
	if C.Logger == nil {
		return zap.NewNop()
	}
	return C.Logger
}
