// Package engine analyses the two versions of a changed file and
// collects the facts the extraction visitors report about them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	"github.com/chai-analysis/chai/analysis/extract"
	"github.com/chai-analysis/chai/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrVersionMismatch = errors.New("version mismatch")

// Version is one side of a file pair: the script tree and the CFGs of
// every function in it. The CFGs hold the states of the last analysis.
type Version struct {
	Script *ast.Node
	CFGs   *cfg.Map
}

// NewVersion builds the CFGs of script.
func NewVersion(ids ast.IDSource, script *ast.Node) (Version, error) {
	cfgs, err := cfg.NewBuilder(ids).BuildAll(script)
	if err != nil {
		return Version{}, err
	}
	return Version{Script: script, CFGs: cfgs}, nil
}

// FilePair is a file before and after a commit. The trees of the two
// versions are linked through their mappings, but share no CFGs.
type FilePair struct {
	Name                string
	Source, Destination Version
}

// Report is the outcome of analysing a file pair.
type Report struct {
	Session             uuid.UUID
	Name                string
	Source, Destination *absint.Result
	Facts               []extract.Fact
}

// Aborted holds if the watchdog cut either version short.
func (r *Report) Aborted() bool {
	return r.Source.Aborted || r.Destination.Aborted
}

func (p FilePair) check() error {
	for _, side := range []struct {
		v    Version
		want ast.Version
	}{{p.Source, ast.Source}, {p.Destination, ast.Destination}} {
		if side.v.Script == nil || side.v.CFGs == nil {
			return fmt.Errorf("%s: %s version is incomplete", p.Name, side.want)
		}
		if got := side.v.Script.Version; got != side.want {
			return fmt.Errorf("%w: %s version of %s is tagged %s", ErrVersionMismatch, side.want, p.Name, got)
		}
	}
	if p.Source.CFGs == p.Destination.CFGs {
		return fmt.Errorf("%s: versions share their CFGs", p.Name)
	}
	return nil
}

// AnalyzePair analyses the source and destination version of pair in
// parallel and runs the visitors built by factories over both. Each
// version records its states in its own CFGs; only the identifier
// generator and the fact sink are shared.
//
// If either analysis fails, the other is cancelled and the error is
// returned. Versions cut short by the watchdog are not failures: their
// partial states are visited and the report is marked as aborted.
func AnalyzePair(ctx context.Context, C *absint.AnalysisContext, pair FilePair, factories []extract.Factory) (*Report, error) {
	if err := pair.check(); err != nil {
		return nil, err
	}

	log := C.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("engine").With(zap.String("file", pair.Name))
	defer utils.TimeTrack(log, time.Now(), "file pair")

	rep := &Report{Session: C.Session, Name: pair.Name}
	sink := extract.NewSink(C.Session)

	g, gctx := errgroup.WithContext(ctx)
	for _, side := range []struct {
		v   Version
		res **absint.Result
	}{{pair.Source, &rep.Source}, {pair.Destination, &rep.Destination}} {
		side := side
		g.Go(func() error {
			res, err := absint.Analyze(gctx, C, side.v.Script, side.v.CFGs)
			if err != nil {
				return fmt.Errorf("%s (%s): %w", pair.Name, side.v.Script.Version, err)
			}
			*side.res = res
			extract.Accept(side.v.CFGs, factories, sink)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("analysis failed", zap.Error(err))
		return nil, err
	}

	rep.Facts = sink.Facts()
	if rep.Aborted() {
		log.Warn("analysis aborted, facts are partial")
	}
	log.Info("file pair analysed", zap.Int("facts", len(rep.Facts)))
	return rep, nil
}
