package lattice

import (
	"errors"
	"fmt"

	"github.com/chai-analysis/chai/utils"

	"github.com/fatih/color"
)

var colorize = struct {
	Lattice func(...interface{}) string
	Element func(...interface{}) string
	Const   func(...interface{}) string
	Key     func(...interface{}) string
	Attr    func(...interface{}) string
	Change  func(...interface{}) string
}{
	Lattice: utils.Colorizer(color.FgHiBlue),
	Element: utils.Colorizer(color.FgCyan),
	Const:   utils.Colorizer(color.FgHiWhite),
	Key:     utils.Colorizer(color.FgYellow),
	Attr:    utils.Colorizer(color.FgHiRed),
	Change:  utils.Colorizer(color.FgMagenta),
}

var (
	errInternal     = errors.New("internal error")
	errPatternMatch = func(v interface{}) error {
		return fmt.Errorf("invalid pattern match: %v %T", v, v)
	}
)
