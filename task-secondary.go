package main

import (
	"fmt"
	"path/filepath"

	"github.com/chai-analysis/chai/analysis/ast"
	"github.com/chai-analysis/chai/analysis/cfg"
	"github.com/chai-analysis/chai/analysis/engine"

	"go.uber.org/zap"
)

const (
	// facts : analyse both versions and list the extracted facts.
	taskFacts = "facts"
	// parse : print the classified trees of both versions.
	taskParse = "parse"
	// cfg-to-dot : render the CFGs of both versions.
	taskCfgToDot = "cfg-to-dot"
)

// secondaryTask executes the tasks that do not analyse the pair.
func (p *pipeline) secondaryTask(task string) error {
	versions := []engine.Version{p.pair.Source, p.pair.Destination}

	switch task {
	case taskParse:
		for _, v := range versions {
			fmt.Println(header("================ " + v.Script.Version.String() + " ================"))
			ast.Walk(v.Script, func(n *ast.Node) ast.Descent {
				if n.Kind.IsStatement() && n.Kind != ast.Script {
					printStatement(n)
				}
				return ast.DescendAll
			})
			for _, g := range v.CFGs.All() {
				fmt.Printf("%s: %d nodes, %d loops\n", location(g.Name()), len(g.Nodes), len(g.Loops()))
			}
		}
		return nil

	case taskCfgToDot:
		for _, v := range versions {
			for _, g := range v.CFGs.All() {
				name := fmt.Sprintf("%s-%s", v.Script.Version, g.Name())
				img, err := g.Visualize(opts, filepath.Join(*outDir, name))
				if err != nil {
					return fmt.Errorf("rendering %s: %w", name, err)
				}
				p.log.Info("rendered CFG", zap.String("cfg", name), zap.String("image", img))
			}
		}
		return nil
	}

	return fmt.Errorf("unknown task %q", task)
}

func printStatement(n *ast.Node) {
	change := n.Change.String()
	if n.IsChanged() {
		change = warning(change)
	}
	mapped := ""
	if n.Mapping != nil {
		mapped = location(fmt.Sprintf(" ~ %d", n.Mapping.ID))
	}
	fmt.Printf("%4d %-10s %s%s\n", n.Line, change, cfg.Label(n), mapped)
}
