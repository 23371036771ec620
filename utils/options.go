package utils

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Options collects the knobs of a single analysis run. Options are
// plain data: the analysis reads them once, when its context is built.
type Options struct {
	// Trace strategy: "fsci" or "stack-cfa".
	Trace string `yaml:"trace"`
	// Call-string length and heap sensitivity for stack-cfa.
	K int `yaml:"k"`
	H int `yaml:"h"`

	// Label of the external AST differencer that tagged the input.
	DiffMethod string `yaml:"diff-method"`

	// Wall-clock budget for analysing one file version. Zero disables it.
	TimeBudget time.Duration `yaml:"time-budget"`
	// Worklist steps allowed for one run of a single CFG.
	StepBudget int `yaml:"step-budget"`
	// How many levels of un-invoked closures are analysed after the
	// script reaches its fixpoint.
	ReachableDepth int  `yaml:"reachable-depth"`
	NoCallbacks    bool `yaml:"no-callbacks"`

	Metrics    bool   `yaml:"metrics"`
	Verbose    bool   `yaml:"verbose"`
	LogFile    string `yaml:"log-file"`
	NoColorize bool   `yaml:"no-colorize"`

	// Visualization
	OutputFormat string  `yaml:"format"`
	Minlen       uint    `yaml:"minlen"`
	Nodesep      float64 `yaml:"nodesep"`
}

const (
	TraceFSCI     = "fsci"
	TraceStackCFA = "stack-cfa"
)

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Trace:          TraceStackCFA,
		K:              2,
		H:              1,
		DiffMethod:     "gumtree",
		TimeBudget:     2 * time.Minute,
		StepBudget:     100000,
		ReachableDepth: 1,
		OutputFormat:   "svg",
		Minlen:         2,
		Nodesep:        0.35,
	}
}

// RegisterFlags binds the options to command line flags of fs.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Trace, "trace", o.Trace, "Addressing strategy [fsci | stack-cfa]")
	fs.IntVar(&o.K, "k", o.K, "Call-string length for stack-cfa")
	fs.IntVar(&o.H, "h", o.H, "Heap sensitivity for stack-cfa (must not exceed -k)")
	fs.StringVar(&o.DiffMethod, "diff-method", o.DiffMethod, "Label of the AST differencer that produced the change tags")
	fs.DurationVar(&o.TimeBudget, "time-budget", o.TimeBudget, "Wall-clock budget per file version (0 disables the watchdog)")
	fs.IntVar(&o.StepBudget, "step-budget", o.StepBudget, "Worklist steps allowed for one run of a single CFG")
	fs.IntVar(&o.ReachableDepth, "reachable-depth", o.ReachableDepth, "Depth of analysis for reachable functions that were never invoked")
	fs.BoolVar(&o.NoCallbacks, "no-callbacks", o.NoCallbacks, "Do not analyse functions passed as call arguments")
	fs.BoolVar(&o.Metrics, "metrics", o.Metrics, "Collect and print fixpoint metrics")
	fs.BoolVar(&o.Verbose, "verbose", o.Verbose, "Enable debug logging")
	fs.StringVar(&o.LogFile, "log-file", o.LogFile, "Also write logs to this (rotated) file")
	fs.BoolVar(&o.NoColorize, "no-colorize", o.NoColorize, "Disable pretty printer colorization")
	fs.StringVar(&o.OutputFormat, "format", o.OutputFormat, "output file format [svg | png | jpg | ...]")
	fs.UintVar(&o.Minlen, "minlen", o.Minlen, "Minimum edge length (for wider output).")
	fs.Float64Var(&o.Nodesep, "nodesep", o.Nodesep, "Minimum space between two adjacent nodes in the same rank (for taller output).")
}

// LoadFile overlays the YAML document at path onto the options.
// Keys missing from the document keep their current value.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading options: %w", err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parsing options %s: %w", path, err)
	}
	return nil
}

// Validate checks the option combinations that cannot be expressed
// by flag types alone.
func (o Options) Validate() error {
	switch o.Trace {
	case TraceFSCI, TraceStackCFA:
	default:
		return fmt.Errorf("%w: unknown trace %q", ErrInvalidOption, o.Trace)
	}
	if o.StepBudget <= 0 {
		return fmt.Errorf("%w: step budget must be positive", ErrInvalidOption)
	}
	if o.ReachableDepth < 0 {
		return fmt.Errorf("%w: reachable depth must not be negative", ErrInvalidOption)
	}
	return nil
}

// Apply installs the process-wide printing settings implied by the options.
func (o Options) Apply() {
	noColorize = o.NoColorize || !isatty.IsTerminal(os.Stdout.Fd())
}

var noColorize = !isatty.IsTerminal(os.Stdout.Fd())

// CanColorize wraps a color function such that it prints plainly
// whenever colorization is disabled.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	return func(is ...interface{}) string {
		if noColorize {
			return fmt.Sprint(is...)
		}
		return col(is...)
	}
}

// Colorizer is shorthand for CanColorize(color.New(attrs...).SprintFunc()).
func Colorizer(attrs ...color.Attribute) func(...interface{}) string {
	return CanColorize(color.New(attrs...).SprintFunc())
}
