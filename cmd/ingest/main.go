// Command ingest fetches exchange listings and reconciles them into the
// database.
//
//	ingest [-reset] [-interactive] <reference|currencies|pairs|all>
//
// It exits 1 when the run could not proceed and 2 when some steps failed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cryptodata/internal/app"
	"cryptodata/internal/config"
	"cryptodata/internal/ingest"
	"cryptodata/internal/logger"
	"cryptodata/internal/resolve"
)

func main() {
	os.Exit(run())
}

func run() int {
	reset := flag.Bool("reset", false, "empty the reconciled tables before ingesting")
	interactive := flag.Bool("interactive", false, "prompt for names and types the exchanges do not provide (overrides INTERACTIVE)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <reference|currencies|pairs|all>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	logger.InitWithLevel(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	kind, err := ingest.ParseKind(flag.Arg(0))
	if err != nil {
		log.Errorw("invalid arguments", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeDB, err := app.Open(cfg, nil)
	if err != nil {
		log.Errorw("startup failed", "error", err)
		return 1
	}
	defer closeDB()

	var prompter resolve.Prompter
	if *interactive || cfg.Interactive {
		prompter = resolve.NewConsolePrompter(os.Stdin, os.Stdout)
	}
	runner, err := a.NewRunner(prompter)
	if err != nil {
		log.Errorw("startup failed", "error", err)
		return 1
	}

	if *reset {
		if err := runner.Reset(); err != nil {
			log.Errorw("reset failed", "error", err)
			return 1
		}
	}

	result, err := runner.Run(ctx, kind)
	writeMetrics(a, cfg)
	if err != nil {
		log.Errorw("ingest run failed", "kind", kind, "error", err)
		return 1
	}

	for _, step := range result.Errors() {
		log.Warnw("ingest step failed",
			"kind", step.Kind,
			"source", step.Source,
			"error", step.Err.Error(),
		)
	}
	if result.Failed() {
		return 2
	}
	return 0
}

func writeMetrics(a *app.App, cfg *config.Config) {
	if cfg.MetricsTextfile == "" {
		return
	}
	if err := a.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
		logger.Get().Warnw("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
	}
}
