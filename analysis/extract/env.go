package extract

import (
	"sort"
	"strings"

	"github.com/chai-analysis/chai/analysis/cfg"

	uf "github.com/spakin/disjoint"
)

// EnvVisitor reports the bindings of a function whose declaration was
// inserted, removed or renamed. Renamed identifiers are grouped across
// the function, so that a chain of renames is reported as one group.
type EnvVisitor struct {
	g  *cfg.CFG
	sc *Scope

	names   map[string]*uf.Element
	renames []Fact
}

func NewEnvVisitor(g *cfg.CFG, sc *Scope) cfg.Visitor {
	return &EnvVisitor{g: g, sc: sc, names: make(map[string]*uf.Element)}
}

func (v *EnvVisitor) VisitEdge(*cfg.Edge) {}

// VisitNode inspects the frame of the function when it is entered,
// after its declarations were hoisted.
func (v *EnvVisitor) VisitNode(n *cfg.Node) {
	if n != v.g.Entry {
		return
	}
	s, ok := before(n)
	if !ok {
		return
	}

	for _, vr := range s.Env.Frame() {
		if !vr.Change.Changed() || isPseudo(vr.Name) {
			continue
		}
		def, found := v.sc.Nodes[vr.Definer]
		if !found {
			continue
		}

		fact := Fact{
			Kind:    ChangedName,
			Line:    def.Line,
			Subject: vr.Name,
			Change:  vr.Change,
		}
		if other := def.Mapping; other != nil && other.Name != "" && other.Name != def.Name {
			uf.Union(v.element(def.Name), v.element(other.Name))
			v.renames = append(v.renames, fact)
			continue
		}
		fact.Detail = lower(def.Change)
		v.sc.report(fact)
	}
}

// Finish reports the renamed bindings with the identifiers they were
// renamed from or to.
func (v *EnvVisitor) Finish() {
	groups := map[*uf.Element][]string{}
	for name, el := range v.names {
		rep := el.Find()
		groups[rep] = append(groups[rep], name)
	}

	for _, fact := range v.renames {
		group := groups[v.names[fact.Subject].Find()]
		sort.Strings(group)
		fact.Detail = "renamed: " + strings.Join(group, " ~ ")
		v.sc.report(fact)
	}
}

func (v *EnvVisitor) element(name string) *uf.Element {
	el, found := v.names[name]
	if !found {
		el = uf.NewElement()
		el.Data = name
		v.names[name] = el
	}
	return el
}

// isPseudo holds for bindings the analysis introduces itself.
func isPseudo(name string) bool {
	return name == "arguments" || strings.HasPrefix(name, "~")
}

var _ Finisher = (*EnvVisitor)(nil)
