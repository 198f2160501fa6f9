package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schema-migrate/internal/schema/model"
	"schema-migrate/internal/shared/logger"
)

const bytesPerGB = 1024 * 1024 * 1024

// Extractor captures a schema snapshot from a source server through the
// driver's command interface. It is strictly read-only. Failure
// isolation is per collection: statistics, index listing and the shard
// probe each degrade independently without aborting the snapshot.
type Extractor struct {
	uri         string
	timeout     time.Duration
	strictShard bool
	log         logger.Logger
}

// NewExtractor creates an extractor for the given source connection
// string. With strictShard enabled, a failed shard probe records
// shard_state "unknown" instead of silently assuming unsharded.
func NewExtractor(uri string, timeout time.Duration, strictShard bool, log logger.Logger) *Extractor {
	return &Extractor{
		uri:         uri,
		timeout:     timeout,
		strictShard: strictShard,
		log:         log.WithComponent("extractor"),
	}
}

// Extract connects to the source and builds a complete snapshot.
func (e *Extractor) Extract(ctx context.Context) (*model.SchemaSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(e.uri).
		SetServerSelectionTimeout(e.timeout))
	if err != nil {
		return nil, classifyConnectivity(err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			e.log.Warnf("failed to disconnect from source: %v", err)
		}
	}()

	if err := client.Ping(ctx, nil); err != nil {
		return nil, classifyConnectivity(err)
	}

	listResult, err := client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, classifyConnectivity(err)
	}

	snapshot := &model.SchemaSnapshot{
		ExtractedAt: time.Now().UTC(),
	}

	specs := listResult.Databases
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	for _, spec := range specs {
		if model.IsSystemDatabase(spec.Name) {
			continue
		}
		dbSchema, err := e.extractDatabase(ctx, client, spec.Name, spec.SizeOnDisk)
		if err != nil {
			return nil, err
		}
		snapshot.Databases = append(snapshot.Databases, dbSchema)
	}

	return snapshot, nil
}

func (e *Extractor) extractDatabase(ctx context.Context, client *mongo.Client, name string, sizeOnDisk int64) (model.DatabaseSchema, error) {
	e.log.Infof("extracting database %s", name)

	db := client.Database(name)
	collNames, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return model.DatabaseSchema{}, classifyConnectivity(
			fmt.Errorf("listing collections of %s: %w", name, err))
	}
	sort.Strings(collNames)

	schema := model.DatabaseSchema{
		Database: name,
		SizeGB:   float64(sizeOnDisk) / bytesPerGB,
	}
	for _, collName := range collNames {
		schema.Collections = append(schema.Collections, e.extractCollection(ctx, client, name, collName))
	}
	return schema, nil
}

// extractCollection never fails: every probe substitutes a neutral value
// on error so a single broken collection cannot abort the snapshot.
func (e *Extractor) extractCollection(ctx context.Context, client *mongo.Client, dbName, collName string) model.CollectionSchema {
	db := client.Database(dbName)

	schema := model.CollectionSchema{Name: collName}

	stats, err := fetchCollStats(ctx, db, collName)
	if err != nil {
		e.log.Warnf("collStats failed for %s.%s, recording zero stats: %v", dbName, collName, err)
	} else {
		schema.DocCount = stats.Count
		schema.SizeGB = float64(stats.Size) / bytesPerGB
		schema.AvgDocSize = stats.AvgObjSize
	}

	indexes, err := fetchIndexes(ctx, db, collName)
	if err != nil {
		e.log.Warnf("index listing failed for %s.%s, recording no indexes: %v", dbName, collName, err)
	} else {
		schema.Indexes = indexes
	}

	shardKey, sharded, err := probeShardKey(ctx, client, dbName, collName)
	switch {
	case err != nil && e.strictShard:
		e.log.Warnf("shard probe failed for %s.%s, marking unknown: %v", dbName, collName, err)
		schema.ShardState = model.ShardStateUnknown
	case err != nil:
		e.log.Debugf("shard probe failed for %s.%s, assuming unsharded: %v", dbName, collName, err)
	case sharded:
		schema.IsSharded = true
		schema.ShardKey = &shardKey
	}

	return schema
}

type collStats struct {
	Count      int64   `bson:"count"`
	Size       int64   `bson:"size"`
	AvgObjSize float64 `bson:"avgObjSize"`
}

func fetchCollStats(ctx context.Context, db *mongo.Database, collName string) (collStats, error) {
	var stats collStats
	err := db.RunCommand(ctx, bson.D{{Key: "collStats", Value: collName}}).Decode(&stats)
	return stats, err
}

// indexDocument mirrors the descriptors returned by listIndexes.
type indexDocument struct {
	Name               string `bson:"name"`
	Key                bson.D `bson:"key"`
	Unique             bool   `bson:"unique"`
	Sparse             bool   `bson:"sparse"`
	Background         bool   `bson:"background"`
	ExpireAfterSeconds *int32 `bson:"expireAfterSeconds"`
}

func fetchIndexes(ctx context.Context, db *mongo.Database, collName string) ([]model.IndexSchema, error) {
	cursor, err := db.Collection(collName).Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	var docs []indexDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	indexes := make([]model.IndexSchema, 0, len(docs))
	for _, doc := range docs {
		indexes = append(indexes, indexFromDocument(doc))
	}
	return indexes, nil
}

func indexFromDocument(doc indexDocument) model.IndexSchema {
	return model.IndexSchema{
		Name:               doc.Name,
		Keys:               model.FromBSON(doc.Key),
		Unique:             doc.Unique,
		Sparse:             doc.Sparse,
		Background:         doc.Background,
		ExpireAfterSeconds: doc.ExpireAfterSeconds,
	}
}

// shardDocument mirrors entries of config.collections.
type shardDocument struct {
	Key     bson.D `bson:"key"`
	Dropped bool   `bson:"dropped"`
}

// probeShardKey looks up the cluster metadata entry for the namespace.
// Absence means not sharded; any other failure is reported to the caller
// which decides between the lenient default and strict mode.
func probeShardKey(ctx context.Context, client *mongo.Client, dbName, collName string) (model.KeySpec, bool, error) {
	namespace := dbName + "." + collName
	var doc shardDocument
	err := client.Database("config").Collection("collections").
		FindOne(ctx, bson.D{{Key: "_id", Value: namespace}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if doc.Dropped {
		return nil, false, nil
	}
	return model.FromBSON(doc.Key), true, nil
}
