package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/chai-analysis/chai/analysis/cfg"
	L "github.com/chai-analysis/chai/analysis/lattice"
)

// ControlVisitor reports branches on changed conditions, and the
// statements whose execution depends on them.
type ControlVisitor struct {
	g  *cfg.CFG
	sc *Scope
}

func NewControlVisitor(g *cfg.CFG, sc *Scope) cfg.Visitor {
	return &ControlVisitor{g, sc}
}

func (v *ControlVisitor) VisitEdge(e *cfg.Edge) {
	if !e.IsChanged() || e.After() == nil {
		return
	}
	v.sc.report(Fact{
		Kind:    ChangedCondition,
		Line:    e.Line(),
		Subject: e.Condition.Source(),
		Change:  L.InsertedOrRemoved,
		Detail:  lower(e.Condition.Change),
	})
}

func (v *ControlVisitor) VisitNode(n *cfg.Node) {
	if isSynthetic(v.g, n) {
		return
	}
	s, ok := before(n)
	if !ok || !s.Control.Affected() {
		return
	}

	var reasons []string
	if lines := v.conditionLines(s.Control); len(lines) > 0 {
		reasons = append(reasons, "conditions at lines "+strings.Join(lines, ", "))
	}
	if s.Control.Call.Changed() {
		reasons = append(reasons, "entered through a changed call")
	}

	v.sc.report(Fact{
		Kind:    AffectedStatement,
		Line:    n.Statement.Line,
		Subject: n.Label(),
		Change:  s.Control.Change(),
		Detail:  strings.Join(reasons, "; "),
	})
}

// conditionLines lists the distinct source lines of the changed
// conditions c depends on.
func (v *ControlVisitor) conditionLines(c L.Control) []string {
	seen := map[int]bool{}
	var lines []int
	for _, id := range c.Conditions() {
		cond, found := v.sc.Nodes[id]
		if !found {
			// Synthetic negations share the line of the condition.
			continue
		}
		if !seen[cond.Line] {
			seen[cond.Line] = true
			lines = append(lines, cond.Line)
		}
	}
	sort.Ints(lines)

	res := make([]string, len(lines))
	for i, l := range lines {
		res[i] = strconv.Itoa(l)
	}
	return res
}
