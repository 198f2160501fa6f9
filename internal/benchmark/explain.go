package benchmark

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"schema-migrate/internal/mongosh"
	"schema-migrate/internal/report"
	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

// Explain verbosity modes. The full mode is attempted first; the reduced
// mode is the fallback when the full mode cannot finish within budget.
const (
	ModeAllPlans       = "allPlansExecution"
	ModeExecutionStats = "executionStats"
)

var countDocumentsPattern = regexp.MustCompile(`targetDb\.([\w-]+)\.countDocuments\((.*)\)`)

// transformToExplain rewrites a benchmark query into its explain form
// for the given verbosity mode.
func transformToExplain(query, mode string) string {
	if match := countDocumentsPattern.FindStringSubmatch(query); match != nil {
		collection := match[1]
		filter := match[2]
		return fmt.Sprintf(`targetDb.runCommand({explain: {count: "%s", query: %s}, verbosity: "%s"})`,
			collection, filter, mode)
	}
	if strings.Contains(query, ".toArray()") {
		return strings.Replace(query, ".toArray()", fmt.Sprintf(`.explain("%s")`, mode), 1)
	}
	if strings.Contains(query, ".find(") || strings.Contains(query, ".aggregate(") {
		return strings.TrimRight(query, " \t\n") + fmt.Sprintf(`.explain("%s")`, mode)
	}
	return query + fmt.Sprintf(`.explain("%s")`, mode)
}

// ExplainCapturer captures query plans, falling back from full to
// reduced verbosity when the full mode times out. A non-timeout failure
// in full mode is terminal for that query; no fallback is attempted.
type ExplainCapturer struct {
	Database   string
	Collection string
	Runner     mongosh.Runner
	Log        logger.Logger
}

// NewExplainCapturer wires an explain capturer for one target database.
func NewExplainCapturer(database, collection string, runner mongosh.Runner, log logger.Logger) *ExplainCapturer {
	return &ExplainCapturer{
		Database:   database,
		Collection: collection,
		Runner:     runner,
		Log:        log.WithComponent("explain-queries"),
	}
}

// WriteHeader writes the transcript preamble.
func (c *ExplainCapturer) WriteHeader(w io.Writer) {
	fmt.Fprintf(w, "MongoDB Explain Output\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Database: %s\n", c.Database)
	fmt.Fprintf(w, "Collection: %s\n", c.Collection)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 80))
}

// Run captures the explain plan of every query, appending the transcript
// to w.
func (c *ExplainCapturer) Run(ctx context.Context, w io.Writer, queries []QuerySpec) (*report.RunReport, error) {
	if err := model.ValidateIdentifier(c.Database); err != nil {
		return nil, apperrors.NewConfigurationError("invalid database name").WithCause(err)
	}

	run := report.NewRunReport()
	c.Log.Infof("capturing explain plans for %d queries (run %s)", len(queries), run.RunID)

	for i, query := range queries {
		c.Log.Infof("[%d/%d] %s", i+1, len(queries), query.Description)

		fmt.Fprintf(w, "Query %d: %s\n", i+1, query.Description)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
		fmt.Fprintf(w, "Original Query: %s\n\n", query.Query)

		unit := run.Add(query.Description)
		unit.Start()
		start := time.Now()

		c.captureOne(ctx, w, query, unit, start)

		fmt.Fprintf(w, "\n%s\n\n", strings.Repeat("=", 80))
	}

	c.Log.Infof("summary: %s", run.Summary("plans captured"))
	return run, nil
}

func (c *ExplainCapturer) captureOne(ctx context.Context, w io.Writer, query QuerySpec, unit *report.UnitResult, start time.Time) {
	result, err := c.Runner.Run(ctx, c.script(query.Query, ModeAllPlans))

	switch {
	case err == nil && result.Success():
		fmt.Fprintf(w, "Explain Output (mode: %s):\n%s\n", ModeAllPlans, result.Stdout)
		unit.Mode = ModeAllPlans
		unit.Succeed(time.Since(start).Seconds())
		c.Log.Infof("captured (%s)", ModeAllPlans)
		return

	case isExplainTimeout(err, result):
		fmt.Fprintf(w, "Note: %s timed out, using %s...\n\n", ModeAllPlans, ModeExecutionStats)
		c.Log.Warnf("%s timed out, falling back to %s", ModeAllPlans, ModeExecutionStats)

		result, err = c.Runner.Run(ctx, c.script(query.Query, ModeExecutionStats))
		if err == nil && result.Success() {
			fmt.Fprintf(w, "Explain Output (mode: %s):\n%s\n", ModeExecutionStats, result.Stdout)
			unit.Mode = ModeExecutionStats
			unit.Succeed(time.Since(start).Seconds())
			c.Log.Infof("captured (%s)", ModeExecutionStats)
			return
		}
		c.failUnit(w, unit, start, result, err)

	default:
		c.failUnit(w, unit, start, result, err)
	}
}

func (c *ExplainCapturer) failUnit(w io.Writer, unit *report.UnitResult, start time.Time, result mongosh.Result, err error) {
	message := result.Stderr
	if err != nil {
		message = err.Error()
	}
	fmt.Fprintf(w, "ERROR:\n%s\n", message)
	unit.Fail(time.Since(start).Seconds(), message)
	c.Log.Errorf("explain failed: %s", message)
}

// isExplainTimeout decides whether the full-verbosity attempt hit the
// time budget: either the invocation itself was killed at the deadline
// or the client reported a server-side timeout.
func isExplainTimeout(err error, result mongosh.Result) bool {
	if apperrors.IsTimeout(err) {
		return true
	}
	return err == nil && !result.Success() && strings.Contains(strings.ToLower(result.Stderr), "timeout")
}

func (c *ExplainCapturer) script(query, mode string) string {
	return fmt.Sprintf(`var targetDb = db.getSiblingDB('%s');
var explainResult = %s;
print(JSON.stringify(explainResult, null, 2));
`, c.Database, transformToExplain(query, mode))
}
