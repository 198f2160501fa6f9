package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"schema-migrate/internal/benchmark"
	"schema-migrate/internal/config"
	"schema-migrate/internal/mongosh"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func main() {
	log := logger.NewLogger().WithComponent("run-queries")

	cfg, err := config.Load()
	if err != nil {
		fatal(log, err)
	}
	if err := cfg.RequireURI(); err != nil {
		fatal(log, err)
	}

	queries, err := benchmark.LoadQueries(cfg.QueriesFile, cfg.Collection)
	if err != nil {
		fatal(log, err)
	}
	log.Infof("found %d queries to execute against %s.%s", len(queries), cfg.Database, cfg.Collection)

	runner := mongosh.NewShellRunner(cfg.URI, cfg.Timeout())
	queryRunner := benchmark.NewQueryRunner(cfg.Database, cfg.Collection, runner, log)

	run, err := queryRunner.Run(context.Background(), queries)
	if err != nil {
		fatal(log, err)
	}

	column, err := queryRunner.Persist(run, cfg.OutputFile, time.Now().Unix())
	if err != nil {
		fatal(log, err)
	}

	fmt.Printf("\nSummary: %s\n", run.Summary("queries executed"))
	fmt.Printf("Results saved to: %s (column %s)\n", cfg.OutputFile, column)
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	if hint := apperrors.Hint(err); hint != "" {
		log.Infof("hint: %s", hint)
	}
	os.Exit(1)
}
