package persistence

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
)

func sampleSnapshot() *model.SchemaSnapshot {
	ttl := int32(3600)
	shardKey := model.KeySpec{{Field: "tenant_id", Value: "hashed"}}
	return &model.SchemaSnapshot{
		ExtractedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Databases: []model.DatabaseSchema{
			{
				Database: "crm",
				SizeGB:   0.25,
				Collections: []model.CollectionSchema{
					{
						Name:       "contacts",
						DocCount:   4200,
						SizeGB:     0.1,
						AvgDocSize: 512,
						Indexes: []model.IndexSchema{
							{Name: "_id_", Keys: model.KeySpec{{Field: "_id", Value: int32(1)}}},
							{
								Name:               "idx_session",
								Keys:               model.KeySpec{{Field: "session", Value: int32(1)}},
								Sparse:             true,
								ExpireAfterSeconds: &ttl,
							},
						},
						IsSharded: true,
						ShardKey:  &shardKey,
					},
				},
			},
		},
	}
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := NewSnapshotStore()
	path := filepath.Join(t.TempDir(), "schema.json")

	original := sampleSnapshot()
	require.NoError(t, store.Save(path, original))

	loaded, err := store.Load(path)
	require.NoError(t, err)

	assert.True(t, original.ExtractedAt.Equal(loaded.ExtractedAt))
	require.Len(t, loaded.Databases, 1)
	assert.Equal(t, "crm", loaded.Databases[0].Database)

	coll := loaded.Databases[0].Collections[0]
	assert.Equal(t, int64(4200), coll.DocCount)
	assert.True(t, coll.IsSharded)
	require.NotNil(t, coll.ShardKey)
	assert.True(t, original.Databases[0].Collections[0].ShardKey.Equal(*coll.ShardKey))

	require.Len(t, coll.Indexes, 2)
	idx := coll.Indexes[1]
	assert.Equal(t, "idx_session", idx.Name)
	assert.True(t, idx.Sparse)
	require.NotNil(t, idx.ExpireAfterSeconds)
	assert.Equal(t, int32(3600), *idx.ExpireAfterSeconds)
	assert.True(t, original.Databases[0].Collections[0].Indexes[1].Keys.Equal(idx.Keys))
}

func TestSnapshotStore_Load_MissingFile(t *testing.T) {
	store := NewSnapshotStore()
	_, err := store.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
	assert.NotEmpty(t, apperrors.Hint(err))
}

func TestSnapshotStore_Load_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewSnapshotStore().Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsDeserialization(err))
}

func TestSnapshotStore_Load_InvalidSnapshot(t *testing.T) {
	// Structurally valid JSON that violates a model invariant: sharded
	// collection without a shard key.
	body := `{
		"extracted_at": "2024-05-01T12:00:00Z",
		"databases": [
			{"database": "d1", "size_gb": 0, "collections": [
				{"name": "c1", "doc_count": 0, "size_gb": 0, "avg_doc_size": 0,
				 "indexes": [], "is_sharded": true, "shard_key": null}
			]}
		]
	}`
	path := filepath.Join(t.TempDir(), "invalid.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := NewSnapshotStore().Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsDeserialization(err))
}
