package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/chai-analysis/chai/utils"

	"go.uber.org/zap"
)

var (
	opts = utils.DefaultOptions()

	task       = flag.String("task", taskFacts, "Task to perform [facts | parse | cfg-to-dot]")
	configFile = flag.String("config", "", "YAML file with analysis options; flags override it")
	outDir     = flag.String("out", ".", "Directory for rendered CFGs")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <source.js> <destination.js>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	opts.RegisterFlags(flag.CommandLine)
	flag.Usage = usage
	flag.Parse()

	if *configFile != "" {
		// Reapply the command line on top of the file.
		if err := opts.LoadFile(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		flag.Parse()
	}
	opts.Apply()

	if flag.NArg() != 2 {
		usage()
		os.Exit(2)
	}

	log := utils.NewLogger(opts)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, log, flag.Arg(0), flag.Arg(1)); err != nil {
		log.Error("run failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger, srcPath, dstPath string) error {
	pl, err := newPipeline(log, srcPath, dstPath)
	if err != nil {
		return err
	}
	if err := pl.load(ctx); err != nil {
		return err
	}

	if *task != taskFacts {
		return pl.secondaryTask(*task)
	}

	rep, err := pl.analyze(ctx)
	if err != nil {
		return err
	}
	printReport(rep)
	printMetrics(pl.C.Metrics)
	return nil
}
