package benchmark

import (
	"context"
	"fmt"
	"time"

	"schema-migrate/internal/mongosh"
	"schema-migrate/internal/report"
	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
	"schema-migrate/internal/shared/logger"
)

// IndexCreator builds indexes one at a time on a single collection, each
// through its own client invocation so a slow or failing index never
// blocks the rest.
type IndexCreator struct {
	Database   string
	Collection string
	Runner     mongosh.Runner
	Log        logger.Logger
}

// NewIndexCreator wires an index creator for one target collection.
func NewIndexCreator(database, collection string, runner mongosh.Runner, log logger.Logger) *IndexCreator {
	return &IndexCreator{
		Database:   database,
		Collection: collection,
		Runner:     runner,
		Log:        log.WithComponent("create-indexes"),
	}
}

// Run creates every index in order and reports per-unit outcomes.
func (c *IndexCreator) Run(ctx context.Context, specs []IndexSpec) (*report.RunReport, error) {
	if err := model.ValidateIdentifier(c.Database); err != nil {
		return nil, apperrors.NewConfigurationError("invalid database name").WithCause(err)
	}
	if err := model.ValidateIdentifier(c.Collection); err != nil {
		return nil, apperrors.NewConfigurationError("invalid collection name").WithCause(err)
	}

	run := report.NewRunReport()
	c.Log.Infof("creating %d indexes on %s.%s (run %s)", len(specs), c.Database, c.Collection, run.RunID)

	for _, spec := range specs {
		unit := run.Add(spec.Name)
		unit.Start()
		start := time.Now()

		result, err := c.Runner.Run(ctx, c.script(spec))
		elapsed := time.Since(start).Seconds()

		switch {
		case err != nil:
			if apperrors.IsConfiguration(err) {
				// Missing client binary aborts the whole run.
				return run, err
			}
			unit.Fail(elapsed, err.Error())
			c.Log.Errorf("index %s failed: %v", spec.Name, err)
		case !result.Success():
			unit.Fail(elapsed, result.Stderr)
			c.Log.Errorf("index %s failed: %s", spec.Name, result.Stderr)
		default:
			unit.Succeed(elapsed)
			c.Log.Infof("index %s created (%.2fs)", spec.Name, elapsed)
		}
	}

	c.Log.Infof("summary: %s", run.Summary("indexes created"))
	return run, nil
}

func (c *IndexCreator) script(spec IndexSpec) string {
	return fmt.Sprintf(`var targetDb = db.getSiblingDB('%s');
var result = targetDb.getCollection('%s').createIndex(%s, {name: "%s", background: true});
print(JSON.stringify(result));
`, c.Database, c.Collection, spec.Keys.Literal(), spec.Name)
}
