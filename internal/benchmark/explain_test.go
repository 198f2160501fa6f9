package benchmark

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schema-migrate/internal/report"
	apperrors "schema-migrate/internal/shared/errors"
)

func TestTransformToExplain(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "countDocuments becomes runCommand explain",
			query: `targetDb.applications.countDocuments({active: true})`,
			want:  `targetDb.runCommand({explain: {count: "applications", query: {active: true}}, verbosity: "allPlansExecution"})`,
		},
		{
			name:  "toArray is replaced",
			query: `targetDb.applications.find({a:1}).limit(5).toArray()`,
			want:  `targetDb.applications.find({a:1}).limit(5).explain("allPlansExecution")`,
		},
		{
			name:  "bare find gets explain appended",
			query: `targetDb.applications.find({a:1})`,
			want:  `targetDb.applications.find({a:1}).explain("allPlansExecution")`,
		},
		{
			name:  "aggregate gets explain appended",
			query: `targetDb.applications.aggregate([{$match: {a:1}}])`,
			want:  `targetDb.applications.aggregate([{$match: {a:1}}]).explain("allPlansExecution")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transformToExplain(tt.query, ModeAllPlans))
		})
	}
}

func TestTransformToExplain_ReducedMode(t *testing.T) {
	got := transformToExplain(`targetDb.apps.find({})`, ModeExecutionStats)
	assert.Contains(t, got, `.explain("executionStats")`)
}

func TestExplainCapturer_FullModeSucceeds(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{okResult(`{"queryPlanner": {}}`)}}
	capturer := NewExplainCapturer("db", "apps", runner, testLog())

	var out bytes.Buffer
	run, err := capturer.Run(context.Background(), &out, []QuerySpec{
		{Description: "find all", Query: "targetDb.apps.find({})"},
	})
	require.NoError(t, err)

	require.Len(t, run.Units, 1)
	assert.Equal(t, report.StatusSuccess, run.Units[0].Status)
	assert.Equal(t, ModeAllPlans, run.Units[0].Mode)
	assert.Len(t, runner.scripts, 1)
	assert.Contains(t, runner.scripts[0], "allPlansExecution")
	assert.Contains(t, out.String(), "Explain Output (mode: allPlansExecution)")
}

func TestExplainCapturer_TimeoutFallsBackToReducedVerbosity(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{
		{err: apperrors.NewTimeoutError("client invocation timed out after 5m0s")},
		okResult(`{"executionStats": {}}`),
	}}
	capturer := NewExplainCapturer("db", "apps", runner, testLog())

	var out bytes.Buffer
	run, err := capturer.Run(context.Background(), &out, []QuerySpec{
		{Description: "heavy scan", Query: "targetDb.apps.find({})"},
	})
	require.NoError(t, err)

	require.Len(t, run.Units, 1)
	assert.Equal(t, report.StatusSuccess, run.Units[0].Status)
	assert.Equal(t, ModeExecutionStats, run.Units[0].Mode)

	require.Len(t, runner.scripts, 2)
	assert.Contains(t, runner.scripts[0], "allPlansExecution")
	assert.Contains(t, runner.scripts[1], "executionStats")
	assert.Contains(t, out.String(), "Note: allPlansExecution timed out, using executionStats")
}

func TestExplainCapturer_ClientReportedTimeoutAlsoFallsBack(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{
		failResult("MongoServerError: operation exceeded timeout"),
		okResult(`{"executionStats": {}}`),
	}}
	capturer := NewExplainCapturer("db", "apps", runner, testLog())

	var out bytes.Buffer
	run, err := capturer.Run(context.Background(), &out, []QuerySpec{
		{Description: "heavy scan", Query: "targetDb.apps.find({})"},
	})
	require.NoError(t, err)
	assert.Equal(t, report.StatusSuccess, run.Units[0].Status)
	assert.Equal(t, ModeExecutionStats, run.Units[0].Mode)
}

func TestExplainCapturer_NonTimeoutFailureHasNoFallback(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{
		failResult("MongoServerError: unknown field 'verbosity'"),
	}}
	capturer := NewExplainCapturer("db", "apps", runner, testLog())

	var out bytes.Buffer
	run, err := capturer.Run(context.Background(), &out, []QuerySpec{
		{Description: "find all", Query: "targetDb.apps.find({})"},
	})
	require.NoError(t, err)

	require.Len(t, run.Units, 1)
	assert.Equal(t, report.StatusError, run.Units[0].Status)
	assert.Empty(t, run.Units[0].Mode)

	// Exactly one attempt: no reduced-verbosity retry for a hard error.
	assert.Len(t, runner.scripts, 1)
	assert.Contains(t, out.String(), "ERROR:")
}

func TestExplainCapturer_FailingSiblingsDoNotBlock(t *testing.T) {
	runner := &stubRunner{responses: []stubResponse{
		failResult("hard error"),
		okResult(`{}`),
	}}
	capturer := NewExplainCapturer("db", "apps", runner, testLog())

	var out bytes.Buffer
	run, err := capturer.Run(context.Background(), &out, []QuerySpec{
		{Description: "bad", Query: "targetDb.apps.find({})"},
		{Description: "good", Query: "targetDb.apps.find({})"},
	})
	require.NoError(t, err)

	assert.Equal(t, report.StatusError, run.Units[0].Status)
	assert.Equal(t, report.StatusSuccess, run.Units[1].Status)
}

func TestExplainCapturer_WriteHeader(t *testing.T) {
	capturer := NewExplainCapturer("mobile_apps", "applications", &stubRunner{}, testLog())
	var out bytes.Buffer
	capturer.WriteHeader(&out)

	assert.Contains(t, out.String(), "MongoDB Explain Output")
	assert.Contains(t, out.String(), "Database: mobile_apps")
	assert.Contains(t, out.String(), "Collection: applications")
}
