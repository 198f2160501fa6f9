package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"schema-migrate/internal/config"
	"schema-migrate/internal/mongosh"
	"schema-migrate/internal/report"
	"schema-migrate/internal/schema/generate"
	"schema-migrate/internal/schema/persistence"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func main() {
	schemaPath := flag.String("schema", "schema.json", "Input schema JSON file")
	flag.Parse()

	log := logger.NewLogger().WithComponent("apply-schema")

	cfg, err := config.Load()
	if err != nil {
		fatal(log, err)
	}
	if err := cfg.RequireDestURI(); err != nil {
		fatal(log, err)
	}

	store := persistence.NewSnapshotStore()
	snapshot, err := store.Load(*schemaPath)
	if err != nil {
		fatal(log, err)
	}
	log.Infof("loaded schema: %s", *schemaPath)

	fmt.Println("\nSchema Summary:")
	fmt.Printf("   Databases: %d\n", len(snapshot.Databases))
	fmt.Printf("   Collections: %d\n", snapshot.TotalCollections())
	fmt.Printf("   Indexes: %d\n", snapshot.TotalIndexes())
	fmt.Printf("   Sharded Collections: %d\n", snapshot.ShardedCollections())
	for _, db := range snapshot.Databases {
		fmt.Printf("\n   %s\n", db.Database)
		for _, coll := range db.Collections {
			shardInfo := ""
			if coll.IsSharded {
				shardInfo = " [SHARDED]"
			}
			fmt.Printf("      - %s (%d indexes)%s\n", coll.Name, len(coll.Indexes), shardInfo)
		}
	}

	generator := generate.NewGenerator(cfg.DatabasePrefix)
	script, err := generator.Generate(snapshot)
	if err != nil {
		fatal(log, err)
	}

	log.Infof("connecting to destination %s", config.MaskURI(cfg.DestURI))

	runner := mongosh.NewShellRunner(cfg.DestURI, cfg.Timeout())
	result, err := runner.Run(context.Background(), script)
	if err != nil {
		fatal(log, err)
	}
	if !result.Success() {
		log.Errorf("schema application failed: %s", result.Stderr)
		os.Exit(1)
	}

	fmt.Println(result.Stdout)

	summary, err := report.ParseApplySummary(result.Stdout)
	if err != nil {
		log.Warnf("could not parse apply summary: %v", err)
		return
	}
	log.Infof("applied: %d databases, %d collections, %d indexes, %d errors",
		summary.Databases, summary.Collections, summary.Indexes, summary.ErrorCount)
	if summary.ErrorCount > 0 {
		log.Warn("per-object errors are listed above; the partially applied schema is left for review")
	}
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	if hint := apperrors.Hint(err); hint != "" {
		log.Infof("hint: %s", hint)
	}
	os.Exit(1)
}
