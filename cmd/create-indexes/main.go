package main

import (
	"context"
	"fmt"
	"os"

	"schema-migrate/internal/benchmark"
	"schema-migrate/internal/config"
	"schema-migrate/internal/mongosh"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func main() {
	log := logger.NewLogger().WithComponent("create-indexes")

	cfg, err := config.Load()
	if err != nil {
		fatal(log, err)
	}
	if err := cfg.RequireURI(); err != nil {
		fatal(log, err)
	}

	specs, err := benchmark.LoadIndexSpecs(cfg.IndexesFile)
	if err != nil {
		fatal(log, err)
	}
	log.Infof("found %d indexes to create on %s.%s", len(specs), cfg.Database, cfg.Collection)

	runner := mongosh.NewShellRunner(cfg.URI, cfg.Timeout())
	creator := benchmark.NewIndexCreator(cfg.Database, cfg.Collection, runner, log)

	run, err := creator.Run(context.Background(), specs)
	if err != nil {
		fatal(log, err)
	}

	fmt.Printf("\nSummary: %s\n", run.Summary("indexes created"))
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	if hint := apperrors.Hint(err); hint != "" {
		log.Infof("hint: %s", hint)
	}
	os.Exit(1)
}
