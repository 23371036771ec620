package location

import (
	"fmt"

	"github.com/chai-analysis/chai/utils"

	"github.com/fatih/color"
)

// colorize is used for pretty-printing.
var colorize = struct {
	Site    func(...interface{}) string
	Context func(...interface{}) string
	Prop    func(...interface{}) string
	Builtin func(...interface{}) string
}{
	Site:    utils.Colorizer(color.FgHiGreen),
	Context: utils.Colorizer(color.FgHiBlue),
	Prop:    utils.Colorizer(color.FgHiCyan),
	Builtin: utils.Colorizer(color.FgHiYellow),
}

// Address is a heap key. It is a pure identifier: the Store owns every
// value and object, and addresses merely index into it.
//
// Site is the variable, property or allocation site that generated the
// address (an AST node identifier, or a negative builtin identifier).
// Context is the folded call string the address was generated under.
// Prop distinguishes the properties allocated at the same site.
type Address struct {
	Site    int
	Context uint32
	Prop    string
}

func (a Address) Hash() uint32 {
	return utils.HashCombine(uint32(a.Site), a.Context, utils.HashString(a.Prop))
}

func (a Address) Equal(b Address) bool {
	return a == b
}

// Less is an arbitrary but fixed total order on addresses.
func (a Address) Less(b Address) bool {
	switch {
	case a.Site != b.Site:
		return a.Site < b.Site
	case a.Context != b.Context:
		return a.Context < b.Context
	default:
		return a.Prop < b.Prop
	}
}

// IsBuiltin holds for addresses of objects that exist before any
// program code runs.
func (a Address) IsBuiltin() bool {
	return a.Site < 0
}

func (a Address) String() string {
	if a.IsBuiltin() {
		if name, ok := builtinNames[a.Site]; ok {
			return colorize.Builtin(name)
		}
	}

	str := colorize.Site(fmt.Sprintf("@%d", a.Site))
	if a.Context != 0 {
		str += colorize.Context(fmt.Sprintf("[%x]", a.Context))
	}
	if a.Prop != "" {
		str += "." + colorize.Prop(a.Prop)
	}
	return str
}
