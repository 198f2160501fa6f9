package benchmark

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"schema-migrate/internal/mongosh"
	"schema-migrate/internal/report"
	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

// execTimeMarker prefixes the server-side elapsed milliseconds the
// wrapper script prints.
const execTimeMarker = "EXEC_TIME:"

// QueryRunner executes benchmark queries sequentially and records
// server-side timings.
type QueryRunner struct {
	Database   string
	Collection string
	Runner     mongosh.Runner
	Log        logger.Logger
}

// NewQueryRunner wires a query runner for one target database.
func NewQueryRunner(database, collection string, runner mongosh.Runner, log logger.Logger) *QueryRunner {
	return &QueryRunner{
		Database:   database,
		Collection: collection,
		Runner:     runner,
		Log:        log.WithComponent("run-queries"),
	}
}

// Run executes every query in order. A failing query is recorded and the
// next one still runs.
func (q *QueryRunner) Run(ctx context.Context, queries []QuerySpec) (*report.RunReport, error) {
	if err := model.ValidateIdentifier(q.Database); err != nil {
		return nil, apperrors.NewConfigurationError("invalid database name").WithCause(err)
	}

	run := report.NewRunReport()
	q.Log.Infof("executing %d queries against %s (run %s)", len(queries), q.Database, run.RunID)

	for _, query := range queries {
		unit := run.Add(query.Description)
		unit.Start()
		start := time.Now()

		result, err := q.Runner.Run(ctx, q.script(query))
		elapsed := time.Since(start).Seconds()

		switch {
		case err != nil:
			if apperrors.IsConfiguration(err) {
				return run, err
			}
			unit.Fail(elapsed, err.Error())
			q.Log.Errorf("query %q failed: %v", query.Description, err)
		case !result.Success():
			unit.Fail(elapsed, result.Stderr)
			q.Log.Errorf("query %q failed: %s", query.Description, result.Stderr)
		default:
			seconds := parseExecTime(result.Stdout)
			unit.Succeed(seconds)
			q.Log.Infof("query %q: %.3fs", query.Description, seconds)
		}
	}

	q.Log.Infof("summary: %s, total %.3fs", run.Summary("queries executed"), run.TotalSeconds())
	return run, nil
}

// Persist merges this run into the timing table under a
// {collection}_{epoch} column.
func (q *QueryRunner) Persist(run *report.RunReport, outputPath string, epoch int64) (string, error) {
	column := report.ColumnHeader(q.Collection, epoch)
	table := report.NewTimingTable(outputPath)
	if err := table.Append(column, run.Units); err != nil {
		return "", apperrors.NewInternalError(fmt.Sprintf("failed to persist timings to %s", outputPath)).WithCause(err)
	}
	return column, nil
}

func (q *QueryRunner) script(query QuerySpec) string {
	return fmt.Sprintf(`var targetDb = db.getSiblingDB('%s');
var startMs = Date.now();
var result = %s;
var endMs = Date.now();
print('%s' + (endMs - startMs));
`, q.Database, query.Query, execTimeMarker)
}

// parseExecTime extracts the marker value in seconds; absent marker
// yields zero, matching a query that produced no timing.
func parseExecTime(stdout string) float64 {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, execTimeMarker) {
			ms, err := strconv.ParseFloat(strings.TrimPrefix(line, execTimeMarker), 64)
			if err != nil {
				return 0
			}
			return ms / 1000.0
		}
	}
	return 0
}
