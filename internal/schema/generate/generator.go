package generate

import (
	"fmt"
	"strings"

	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
)

// Generator compiles a schema snapshot into a self-contained mongosh
// script for the destination server. Every statement is wrapped in its
// own try/catch so one incompatible object cannot abort the rest of the
// batch; outcomes are only observable through the summary block the
// script prints last.
type Generator struct {
	// Prefix is prepended to every destination database name. Empty
	// means identity.
	Prefix string
}

// NewGenerator creates a generator with the given database name prefix.
func NewGenerator(prefix string) *Generator {
	return &Generator{Prefix: prefix}
}

// Generate validates the snapshot and returns the apply script.
func (g *Generator) Generate(snapshot *model.SchemaSnapshot) (string, error) {
	if err := snapshot.Validate(); err != nil {
		return "", apperrors.NewDeserializationError("snapshot failed validation").WithCause(err)
	}
	if g.Prefix != "" {
		if err := model.ValidateIdentifier(g.Prefix); err != nil {
			return "", apperrors.NewConfigurationError("invalid database prefix").WithCause(err)
		}
	}

	var sb strings.Builder
	g.writeHeader(&sb, snapshot)

	for _, db := range snapshot.Databases {
		g.writeDatabase(&sb, db)
	}

	g.writeFooter(&sb)
	return sb.String(), nil
}

func (g *Generator) targetName(database string) string {
	return g.Prefix + database
}

func (g *Generator) writeHeader(sb *strings.Builder, snapshot *model.SchemaSnapshot) {
	prefix := g.Prefix
	if prefix == "" {
		prefix = "None"
	}
	sb.WriteString("// Auto-generated schema creation script\n")
	sb.WriteString("// Apply complete MongoDB schema to destination\n\n")
	sb.WriteString("print('============================================================');\n")
	sb.WriteString("print('Applying Schema to Destination MongoDB');\n")
	sb.WriteString("print('============================================================');\n")
	fmt.Fprintf(sb, "print('Total Databases: %d');\n", len(snapshot.Databases))
	fmt.Fprintf(sb, "print('Database Prefix: %s');\n", prefix)
	sb.WriteString("print('============================================================');\n")
	sb.WriteString("print('');\n\n")
	sb.WriteString("var results = { databases: 0, collections: 0, indexes: 0, errors: [] };\n\n")
}

func (g *Generator) writeDatabase(sb *strings.Builder, db model.DatabaseSchema) {
	target := g.targetName(db.Database)

	fmt.Fprintf(sb, "// Database: %s\n", target)
	fmt.Fprintf(sb, "print('Database: %s');\n", target)
	fmt.Fprintf(sb, "var targetDb = db.getSiblingDB('%s');\n\n", target)

	if db.HasShardedCollection() {
		g.writeEnableSharding(sb, target)
	}

	for _, coll := range db.Collections {
		g.writeCollection(sb, target, coll)
	}

	sb.WriteString("results.databases++;\n\n")
}

// writeEnableSharding emits the one database-level enableSharding
// command. An "already enabled" response is logged, not fatal.
func (g *Generator) writeEnableSharding(sb *strings.Builder, target string) {
	sb.WriteString("// Enable sharding on database\n")
	sb.WriteString("try {\n")
	sb.WriteString("    var adminDb = db.getSiblingDB('admin');\n")
	fmt.Fprintf(sb, "    adminDb.runCommand({ enableSharding: '%s' });\n", target)
	sb.WriteString("    print('   Sharding enabled on database');\n")
	sb.WriteString("} catch(e) {\n")
	sb.WriteString("    print('   Could not enable sharding: ' + e.message);\n")
	sb.WriteString("}\n\n")
}

func (g *Generator) writeCollection(sb *strings.Builder, target string, coll model.CollectionSchema) {
	fmt.Fprintf(sb, "// Collection: %s\n", coll.Name)
	fmt.Fprintf(sb, "print('   Creating collection: %s');\n\n", coll.Name)

	if coll.IsSharded && coll.ShardKey != nil {
		shardKey := coll.ShardKey.Literal()
		fmt.Fprintf(sb, "// Shard collection with key: %s\n", shardKey)
		sb.WriteString("try {\n")
		fmt.Fprintf(sb, "    targetDb.createCollection('%s');\n", coll.Name)
		sb.WriteString("    var adminDb = db.getSiblingDB('admin');\n")
		fmt.Fprintf(sb, "    adminDb.runCommand({ shardCollection: '%s.%s', key: %s });\n", target, coll.Name, shardKey)
		sb.WriteString("    print('      Collection created and sharded');\n")
		sb.WriteString("    results.collections++;\n")
		sb.WriteString("} catch(e) {\n")
		sb.WriteString("    print('      Error: ' + e.message);\n")
		fmt.Fprintf(sb, "    results.errors.push({ db: '%s', collection: '%s', error: e.message });\n", target, coll.Name)
		sb.WriteString("}\n\n")
	} else {
		sb.WriteString("try {\n")
		fmt.Fprintf(sb, "    targetDb.createCollection('%s');\n", coll.Name)
		sb.WriteString("    print('      Collection created');\n")
		sb.WriteString("    results.collections++;\n")
		sb.WriteString("} catch(e) {\n")
		sb.WriteString("    print('      Error: ' + e.message);\n")
		fmt.Fprintf(sb, "    results.errors.push({ db: '%s', collection: '%s', error: e.message });\n", target, coll.Name)
		sb.WriteString("}\n\n")
	}

	g.writeIndexes(sb, target, coll)
}

func (g *Generator) writeIndexes(sb *strings.Builder, target string, coll model.CollectionSchema) {
	replayable := 0
	for _, idx := range coll.Indexes {
		if !idx.IsIdentity() {
			replayable++
		}
	}
	if replayable == 0 {
		return
	}

	fmt.Fprintf(sb, "// Creating %d indexes\n", replayable)
	for _, idx := range coll.Indexes {
		if idx.IsIdentity() {
			continue
		}
		options := indexOptions(idx)
		sb.WriteString("try {\n")
		fmt.Fprintf(sb, "    targetDb.getCollection('%s').createIndex(%s, { %s });\n", coll.Name, idx.Keys.Literal(), options)
		fmt.Fprintf(sb, "    print('      Index: %s');\n", idx.Name)
		sb.WriteString("    results.indexes++;\n")
		sb.WriteString("} catch(e) {\n")
		fmt.Fprintf(sb, "    print('      Index %s failed: ' + e.message);\n", idx.Name)
		fmt.Fprintf(sb, "    results.errors.push({ db: '%s', collection: '%s', index: '%s', error: e.message });\n",
			target, coll.Name, idx.Name)
		sb.WriteString("}\n\n")
	}
}

// indexOptions builds the createIndex option list. Boolean options are
// included only when set; TTL only when present.
func indexOptions(idx model.IndexSchema) string {
	options := []string{fmt.Sprintf("name: '%s'", idx.Name)}
	if idx.Unique {
		options = append(options, "unique: true")
	}
	if idx.Sparse {
		options = append(options, "sparse: true")
	}
	if idx.Background {
		options = append(options, "background: true")
	}
	if idx.ExpireAfterSeconds != nil {
		options = append(options, fmt.Sprintf("expireAfterSeconds: %d", *idx.ExpireAfterSeconds))
	}
	return strings.Join(options, ", ")
}

// writeFooter emits the fixed-format summary block. Downstream parsing
// relies on these lines verbatim.
func (g *Generator) writeFooter(sb *strings.Builder) {
	sb.WriteString("print('');\n")
	sb.WriteString("print('============================================================');\n")
	sb.WriteString("print('Schema Application Complete');\n")
	sb.WriteString("print('============================================================');\n")
	sb.WriteString("print('Databases Created: ' + results.databases);\n")
	sb.WriteString("print('Collections Created: ' + results.collections);\n")
	sb.WriteString("print('Indexes Created: ' + results.indexes);\n")
	sb.WriteString("print('Errors: ' + results.errors.length);\n")
	sb.WriteString("results.errors.forEach(function(err) {\n")
	sb.WriteString("    print('  - ' + JSON.stringify(err));\n")
	sb.WriteString("});\n")
	sb.WriteString("print('============================================================');\n")
}
