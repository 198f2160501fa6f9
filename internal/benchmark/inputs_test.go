package benchmark

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadIndexSpecs(t *testing.T) {
	path := writeFile(t, "indexes.json", `[{"name":"idx_email","keys":{"email":1}}]`)

	specs, err := LoadIndexSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "idx_email", specs[0].Name)
	assert.True(t, model.KeySpec{{Field: "email", Value: int32(1)}}.Equal(specs[0].Keys))
}

func TestLoadIndexSpecs_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadIndexSpecs(filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, err)
		assert.True(t, apperrors.IsConfiguration(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, "bad.json", `[{"name":`)
		_, err := LoadIndexSpecs(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsDeserialization(err))
	})

	t.Run("unsafe index name", func(t *testing.T) {
		path := writeFile(t, "unsafe.json", `[{"name":"idx'; drop()","keys":{"a":1}}]`)
		_, err := LoadIndexSpecs(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsDeserialization(err))
	})

	t.Run("empty keys", func(t *testing.T) {
		path := writeFile(t, "empty.json", `[{"name":"idx_a","keys":{}}]`)
		_, err := LoadIndexSpecs(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsDeserialization(err))
	})
}

func TestLoadQueries_SubstitutesCollection(t *testing.T) {
	path := writeFile(t, "queries.json", `[
		{"description": "count all", "query": "targetDb.{{collection}}.countDocuments({})"},
		{"description": "find recent", "query": "targetDb.{{collection}}.find({}).limit(5).toArray()"}
	]`)

	queries, err := LoadQueries(path, "applications")
	require.NoError(t, err)
	require.Len(t, queries, 2)
	assert.Equal(t, "targetDb.applications.countDocuments({})", queries[0].Query)
	assert.Equal(t, "targetDb.applications.find({}).limit(5).toArray()", queries[1].Query)
	assert.NotContains(t, queries[1].Query, "{{collection}}")
}

func TestLoadQueries_RequiresDescription(t *testing.T) {
	path := writeFile(t, "queries.json", `[{"description":"","query":"x"}]`)
	_, err := LoadQueries(path, "c")
	require.Error(t, err)
	assert.True(t, apperrors.IsDeserialization(err))
}
