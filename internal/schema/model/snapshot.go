package model

import (
	"fmt"
	"strings"
	"time"
)

// IdentityIndexName is the implicit default index present on every
// collection. It is captured in snapshots but never replayed.
const IdentityIndexName = "_id_"

// ShardStateUnknown marks a collection whose shard probe failed while
// strict shard detection was enabled. The default mode never sets it.
const ShardStateUnknown = "unknown"

// SystemDatabases are never part of a snapshot.
var SystemDatabases = []string{"admin", "local", "config"}

// IsSystemDatabase reports whether name belongs to the fixed denylist.
func IsSystemDatabase(name string) bool {
	for _, sys := range SystemDatabases {
		if name == sys {
			return true
		}
	}
	return false
}

// IndexSchema describes one index on a collection.
type IndexSchema struct {
	Name               string  `json:"name"`
	Keys               KeySpec `json:"keys"`
	Unique             bool    `json:"unique"`
	Sparse             bool    `json:"sparse"`
	Background         bool    `json:"background"`
	ExpireAfterSeconds *int32  `json:"expireAfterSeconds,omitempty"`
}

// IsIdentity reports whether this is the implicit _id_ index.
func (i IndexSchema) IsIdentity() bool {
	return i.Name == IdentityIndexName
}

// CollectionSchema describes one collection: statistics, indexes and
// shard configuration.
type CollectionSchema struct {
	Name       string        `json:"name"`
	DocCount   int64         `json:"doc_count"`
	SizeGB     float64       `json:"size_gb"`
	AvgDocSize float64       `json:"avg_doc_size"`
	Indexes    []IndexSchema `json:"indexes"`
	IsSharded  bool          `json:"is_sharded"`
	ShardKey   *KeySpec      `json:"shard_key"`
	ShardState string        `json:"shard_state,omitempty"`
}

// DatabaseSchema describes one database and its collections.
type DatabaseSchema struct {
	Database    string             `json:"database"`
	SizeGB      float64            `json:"size_gb"`
	Collections []CollectionSchema `json:"collections"`
}

// HasShardedCollection reports whether any collection in the database is
// sharded, which decides whether sharding must be enabled on the
// destination database.
func (d DatabaseSchema) HasShardedCollection() bool {
	for _, coll := range d.Collections {
		if coll.IsSharded {
			return true
		}
	}
	return false
}

// SchemaSnapshot is the immutable result of one extraction run.
type SchemaSnapshot struct {
	ExtractedAt time.Time        `json:"extracted_at"`
	Databases   []DatabaseSchema `json:"databases"`
}

// TotalCollections counts collections across all databases.
func (s SchemaSnapshot) TotalCollections() int {
	total := 0
	for _, db := range s.Databases {
		total += len(db.Collections)
	}
	return total
}

// TotalIndexes counts indexes across all collections.
func (s SchemaSnapshot) TotalIndexes() int {
	total := 0
	for _, db := range s.Databases {
		for _, coll := range db.Collections {
			total += len(coll.Indexes)
		}
	}
	return total
}

// ShardedCollections counts collections flagged as sharded.
func (s SchemaSnapshot) ShardedCollections() int {
	total := 0
	for _, db := range s.Databases {
		for _, coll := range db.Collections {
			if coll.IsSharded {
				total++
			}
		}
	}
	return total
}

// unsafe identifier characters; anything here could break out of the
// quoted literals the generator emits.
const unsafeIdentChars = "'\"`\\{}\n\r\x00"

// ValidateIdentifier rejects names that cannot be safely interpolated
// into generated mongosh source.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if i := strings.IndexAny(name, unsafeIdentChars); i >= 0 {
		return fmt.Errorf("identifier %q contains forbidden character %q", name, name[i])
	}
	return nil
}

// Validate checks structural invariants of a snapshot: unique, safe
// names at every level, shard key present exactly when sharded, and
// non-empty key specs.
func (s SchemaSnapshot) Validate() error {
	seenDBs := map[string]bool{}
	for _, db := range s.Databases {
		if err := ValidateIdentifier(db.Database); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if seenDBs[db.Database] {
			return fmt.Errorf("duplicate database %q", db.Database)
		}
		seenDBs[db.Database] = true

		seenColls := map[string]bool{}
		for _, coll := range db.Collections {
			if err := ValidateIdentifier(coll.Name); err != nil {
				return fmt.Errorf("database %q: collection: %w", db.Database, err)
			}
			if seenColls[coll.Name] {
				return fmt.Errorf("database %q: duplicate collection %q", db.Database, coll.Name)
			}
			seenColls[coll.Name] = true

			if coll.IsSharded && (coll.ShardKey == nil || len(*coll.ShardKey) == 0) {
				return fmt.Errorf("collection %s.%s is sharded but has no shard key", db.Database, coll.Name)
			}
			if !coll.IsSharded && coll.ShardKey != nil {
				return fmt.Errorf("collection %s.%s has a shard key but is not sharded", db.Database, coll.Name)
			}

			seenIndexes := map[string]bool{}
			for _, idx := range coll.Indexes {
				if err := ValidateIdentifier(idx.Name); err != nil {
					return fmt.Errorf("collection %s.%s: index: %w", db.Database, coll.Name, err)
				}
				if seenIndexes[idx.Name] {
					return fmt.Errorf("collection %s.%s: duplicate index %q", db.Database, coll.Name, idx.Name)
				}
				seenIndexes[idx.Name] = true
				if len(idx.Keys) == 0 {
					return fmt.Errorf("collection %s.%s: index %q has an empty key spec", db.Database, coll.Name, idx.Name)
				}
			}
		}
	}
	return nil
}
