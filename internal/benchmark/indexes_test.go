package benchmark

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-migrate/internal/report"
	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

func testLog() logger.Logger {
	return logger.NewLoggerWithConfig("error", "text")
}

func emailIndexSpec() IndexSpec {
	return IndexSpec{
		Name: "idx_email",
		Keys: model.KeySpec{{Field: "email", Value: int32(1)}},
	}
}

func TestIndexCreator_Success(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{okResult(`"idx_email"`)}}
	creator := NewIndexCreator("mobile_apps", "applications", runner, testLog())

	run, err := creator.Run(context.Background(), []IndexSpec{emailIndexSpec()})
	require.NoError(t, err)

	require.Len(t, run.Units, 1)
	unit := run.Units[0]
	assert.Equal(t, "idx_email", unit.Description)
	assert.Equal(t, report.StatusSuccess, unit.Status)
	assert.GreaterOrEqual(t, unit.Seconds, 0.0)
	assert.Equal(t, 1, run.Attempted())
	assert.Equal(t, 1, run.Succeeded())

	require.Len(t, runner.scripts, 1)
	assert.Contains(t, runner.scripts[0], "db.getSiblingDB('mobile_apps')")
	assert.Contains(t, runner.scripts[0], `createIndex({ "email": 1 }, {name: "idx_email", background: true})`)
}

func TestIndexCreator_Failure(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{failResult("index build failed")}}
	creator := NewIndexCreator("mobile_apps", "applications", runner, testLog())

	run, err := creator.Run(context.Background(), []IndexSpec{emailIndexSpec()})
	require.NoError(t, err)

	require.Len(t, run.Units, 1)
	assert.Equal(t, report.StatusError, run.Units[0].Status)
	assert.Equal(t, 1, run.Attempted())
	assert.Equal(t, 0, run.Succeeded())
	assert.Equal(t, 1, run.Failed())
}

func TestIndexCreator_FailureIsolation(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{
		okResult("ok"),
		failResult("duplicate key"),
		okResult("ok"),
	}}
	creator := NewIndexCreator("db", "coll", runner, testLog())

	specs := []IndexSpec{
		{Name: "idx_a", Keys: model.KeySpec{{Field: "a", Value: int32(1)}}},
		{Name: "idx_b", Keys: model.KeySpec{{Field: "b", Value: int32(1)}}},
		{Name: "idx_c", Keys: model.KeySpec{{Field: "c", Value: int32(1)}}},
	}
	run, err := creator.Run(context.Background(), specs)
	require.NoError(t, err)

	assert.Equal(t, 3, run.Attempted())
	assert.Equal(t, 2, run.Succeeded())
	assert.Equal(t, 1, run.Failed())
	assert.Equal(t, report.StatusError, run.Units[1].Status)
	assert.Equal(t, report.StatusSuccess, run.Units[2].Status)
}

func TestIndexCreator_MissingClientAborts(t *testing.T) {
	abort := apperrors.NewConfigurationError("mongosh not found in PATH")
	runner := &stubRunner{responses: []stubResponse{{err: abort}}}
	creator := NewIndexCreator("db", "coll", runner, testLog())

	_, err := creator.Run(context.Background(), []IndexSpec{emailIndexSpec()})
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestIndexCreator_RejectsUnsafeTarget(t *testing.T) {
	creator := NewIndexCreator("db'bad", "coll", &stubRunner{}, testLog())
	_, err := creator.Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsConfiguration(err))
}
