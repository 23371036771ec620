package main

import (
	"fmt"
	"os"

	"github.com/chai-analysis/chai/analysis/absint"
	"github.com/chai-analysis/chai/analysis/engine"
	"github.com/chai-analysis/chai/analysis/extract"
	"github.com/chai-analysis/chai/utils"

	"github.com/fatih/color"
	"github.com/prometheus/common/expfmt"
)

var (
	header   = utils.Colorizer(color.FgCyan, color.Bold)
	location = utils.Colorizer(color.FgHiBlack)
	warning  = utils.Colorizer(color.FgYellow)
)

// kindColor picks a color per fact kind, so that control facts stand
// apart from value facts in long listings.
func kindColor(k extract.Kind) func(...interface{}) string {
	switch k {
	case extract.ChangedCondition, extract.AffectedStatement:
		return utils.Colorizer(color.FgMagenta)
	case extract.ChangedValue, extract.ChangedName:
		return utils.Colorizer(color.FgGreen)
	default:
		return utils.Colorizer(color.FgBlue)
	}
}

func printReport(rep *engine.Report) {
	fmt.Println(header("================ Facts ======================="))
	fmt.Println("File:", rep.Name, location(rep.Session))
	for _, res := range []*absint.Result{rep.Source, rep.Destination} {
		fmt.Printf("%s: %d steps in %s", res.Version, res.Steps, res.Duration)
		if len(res.Exhausted) > 0 {
			fmt.Print(warning(fmt.Sprintf(", %d CFG runs out of steps", len(res.Exhausted))))
		}
		fmt.Println()
	}
	if rep.Aborted() {
		fmt.Println(warning("The analysis was cut short; the facts are partial."))
	}
	fmt.Println()

	for _, f := range rep.Facts {
		fmt.Printf("%s %s %q %s",
			location(fmt.Sprintf("%s:%d", f.Version, f.Line)),
			kindColor(f.Kind)(f.Kind),
			f.Subject,
			f.Change)
		if f.Detail != "" {
			fmt.Printf(" (%s)", f.Detail)
		}
		fmt.Println()
	}
	fmt.Println(header("================ Facts ======================="))
}

// printMetrics dumps the fixpoint metrics in the text exposition format.
func printMetrics(m *absint.Metrics) {
	if !m.Enabled() {
		return
	}
	families, err := m.Registry().Gather()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gathering metrics:", err)
		return
	}
	fmt.Println(header("================ Metrics ====================="))
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stdout, mf); err != nil {
			fmt.Fprintln(os.Stderr, "writing metrics:", err)
			return
		}
	}
}
