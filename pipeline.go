package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/engine"
	"github.com/chai-analysis/chai/analysis/extract"
	"github.com/chai-analysis/chai/analysis/jsfront"
	"github.com/chai-analysis/chai/utils"

	"go.uber.org/zap"
)

// pipeline is a wrapper around the steps from two files on disk to the
// facts about the commit between them.
type pipeline struct {
	C   *absint.AnalysisContext
	log *zap.Logger

	paths [2]string
	pair  engine.FilePair
}

func newPipeline(log *zap.Logger, srcPath, dstPath string) (*pipeline, error) {
	C, err := absint.NewContext(opts, utils.NewIDGenerator(1))
	if err != nil {
		return nil, err
	}
	return &pipeline{
		C:     C.WithLogger(log),
		log:   log,
		paths: [2]string{srcPath, dstPath},
		pair:  engine.FilePair{Name: filepath.Base(dstPath)},
	}, nil
}

// load parses both versions, classifies their nodes and builds the
// CFGs. Classification must precede CFG construction, since the
// negated conditions of the CFGs copy the classification of the
// conditions.
func (p *pipeline) load(ctx context.Context) error {
	var scripts [2]*ast.Node
	for i, v := range []ast.Version{ast.Source, ast.Destination} {
		src, err := os.ReadFile(p.paths[i])
		if err != nil {
			return err
		}

		parser := jsfront.NewParser(p.C.IDs, v)
		parser.Logger = p.log.Named("jsfront")
		script, err := parser.Parse(ctx, src)
		if err != nil {
			return fmt.Errorf("%s: %w", p.paths[i], err)
		}
		scripts[i] = script
	}

	if !ast.MapIdentical(scripts[0], scripts[1]) {
		if err := jsfront.Match(scripts[0], scripts[1]); err != nil {
			return err
		}
	}

	versions := []*engine.Version{&p.pair.Source, &p.pair.Destination}
	for i, script := range scripts {
		v, err := engine.NewVersion(p.C.IDs, script)
		if err != nil {
			return fmt.Errorf("%s: %w", p.paths[i], err)
		}
		*versions[i] = v
	}

	p.log.Debug("versions loaded",
		zap.Int("source cfgs", p.pair.Source.CFGs.Len()),
		zap.Int("destination cfgs", p.pair.Destination.CFGs.Len()))
	return nil
}

func (p *pipeline) analyze(ctx context.Context) (*engine.Report, error) {
	return engine.AnalyzePair(ctx, p.C, p.pair, extract.Factories)
}
