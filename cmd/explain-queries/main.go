package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"schema-migrate/internal/benchmark"
	"schema-migrate/internal/config"
	"schema-migrate/internal/mongosh"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func main() {
	log := logger.NewLogger().WithComponent("explain-queries")

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
	log.Infof("found %d queries to explain against %s.%s", len(queries), cfg.Database, cfg.Collection)

	outputDir := filepath.Dir(cfg.QueriesFile)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fatal(log, apperrors.NewInternalError(fmt.Sprintf("failed to create %s", outputDir)).WithCause(err))
	}
	outputPath := filepath.Join(outputDir, fmt.Sprintf("explain_out_%d.txt", time.Now().Unix()))
	out, err := os.Create(outputPath)
	if err != nil {
		fatal(log, apperrors.NewInternalError(fmt.Sprintf("failed to create %s", outputPath)).WithCause(err))
	}
	defer out.Close()

	runner := mongosh.NewShellRunner(cfg.URI, cfg.ExplainTimeout())
	capturer := benchmark.NewExplainCapturer(cfg.Database, cfg.Collection, runner, log)

	capturer.WriteHeader(out)
	run, err := capturer.Run(context.Background(), out, queries)
	if err != nil {
		fatal(log, err)
	}

	fmt.Printf("\nSummary: %s\n", run.Summary("plans captured"))
	fmt.Printf("Explain output saved to: %s\n", outputPath)
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	if hint := apperrors.Hint(err); hint != "" {
		log.Infof("hint: %s", hint)
	}
	os.Exit(1)
}
