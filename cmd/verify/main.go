// Command verify checks the reconciled dataset and prints a report. With
// -rebuild it first empties the tables and ingests everything again.
//
// It exits 1 when a check fails or the dataset could not be read.
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
)

func main() {
	os.Exit(run())
}

func run() int {
	rebuild := flag.Bool("rebuild", false, "reset and run a full ingest before verifying")
	minAmount := flag.Int("min", 0, "minimum entities per exchange (overrides VERIFY_MIN_AMOUNT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if *minAmount > 0 {
		cfg.VerifyMinAmount = *minAmount
	}
	logger.InitWithLevel(cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, closeDB, err := app.Open(cfg, nil)
	if err != nil {
		log.Errorw("startup failed", "error", err)
		return 1
	}
	defer closeDB()

	if *rebuild {
		runner, err := a.NewRunner(nil)
		if err != nil {
			log.Errorw("startup failed", "error", err)
			return 1
		}
		if err := runner.Reset(); err != nil {
			log.Errorw("reset failed", "error", err)
			return 1
		}
		result, err := runner.Run(ctx, ingest.KindAll)
		if err != nil {
			log.Errorw("rebuild failed", "error", err)
			return 1
		}
		for _, step := range result.Errors() {
			log.Warnw("rebuild step failed", "kind", step.Kind, "source", step.Source, "error", step.Err.Error())
		}
	}

	report, err := a.NewVerifier().Run(ctx)
	if err != nil {
		log.Errorw("verification failed", "error", err)
		return 1
	}
	if err := report.Write(os.Stdout); err != nil {
		log.Errorw("failed to print report", "error", err)
		return 1
	}
	if !report.Passed() {
		return 1
	}
	return 0
}
