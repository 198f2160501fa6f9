package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"schema-migrate/internal/config"
	"schema-migrate/internal/schema/extract"
	"schema-migrate/internal/schema/persistence"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func main() {
	output := flag.String("output", "schema.json", "Output schema JSON file")
	flag.Parse()

	log := logger.NewLogger().WithComponent("extract-schema")

	cfg, err := config.Load()
	if err != nil {
		fatal(log, err)
	}
	if err := cfg.RequireSourceURI(); err != nil {
		fatal(log, err)
	}

	log.Infof("connecting to source %s", config.MaskURI(cfg.SourceURI))
	log.Info("extracting schema (databases, collections, indexes, shard keys)")

	extractor := extract.NewExtractor(cfg.SourceURI, cfg.Timeout(), cfg.StrictShardDetection, log)
	snapshot, err := extractor.Extract(context.Background())
	if err != nil {
		fatal(log, err)
	}

	store := persistence.NewSnapshotStore()
	if err := store.Save(*output, snapshot); err != nil {
		fatal(log, err)
	}

	log.Infof("schema extracted and saved to %s", *output)
	fmt.Println("\nSummary:")
	fmt.Printf("   Databases: %d\n", len(snapshot.Databases))
	fmt.Printf("   Collections: %d\n", snapshot.TotalCollections())
	fmt.Printf("   Indexes: %d\n", snapshot.TotalIndexes())
	fmt.Printf("   Sharded Collections: %d\n", snapshot.ShardedCollections())

	for _, db := range snapshot.Databases {
		fmt.Printf("\n   %s (%.3f GB)\n", db.Database, db.SizeGB)
		fmt.Printf("      Collections: %d\n", len(db.Collections))
		for _, coll := range db.Collections {
			shardInfo := ""
			if coll.IsSharded && coll.ShardKey != nil {
				shardInfo = fmt.Sprintf(" [SHARDED: %s]", coll.ShardKey.Literal())
			}
			fmt.Printf("         - %s (%d docs, %d indexes)%s\n",
				coll.Name, coll.DocCount, len(coll.Indexes), shardInfo)
		}
	}

	fmt.Println("\nNext steps:")
	fmt.Printf("   1. Review/edit %s to remove unwanted databases/collections\n", *output)
	fmt.Printf("   2. Run: apply-schema -schema %s\n", *output)
}

func fatal(log logger.Logger, err error) {
	log.Error(err.Error())
	if hint := apperrors.Hint(err); hint != "" {
		log.Infof("hint: %s", hint)
	}
	os.Exit(1)
}
