package tasks

import (
	"context"

	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/config"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extdb"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/moodle"
)

// BuildJob wires the sync job from configuration. store is the already
// opened target platform.
func BuildJob(cfg *config.Config, store extensions.Store, logger *zap.Logger) (*extensions.Job, error) {
	clock, err := extensions.NewClock(cfg.Sync.Timezone, cfg.Sync.CohortMarker)
	if err != nil {
		return nil, err
	}

	opts := ExtDBOptions(cfg.ExtDB)
	connect := func(ctx context.Context) (extensions.Source, error) {
		conn, err := extdb.Open(ctx, opts, logger)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	tables := extensions.Tables{
		Assessments:        cfg.ExtDB.AssessmentsTable,
		StudentAssessments: cfg.ExtDB.StudentAssessmentsTable,
	}

	applier := extensions.NewApplier(store, clock, logger)
	return extensions.NewJob(cfg.ExtDB.Type, tables, connect, applier, logger), nil
}

func ExtDBOptions(c config.ExtDBConfig) extdb.Options {
	return extdb.Options{
		Type:          c.Type,
		Host:          c.Host,
		Name:          c.Name,
		User:          c.User,
		Password:      c.Password,
		Encoding:      c.Encoding,
		SetupSQL:      c.SetupSQL,
		SybaseQuoting: c.SybaseQuoting,
		Debug:         c.Debug,
	}
}

func MoodleOptions(c config.MoodleConfig) moodle.Options {
	return moodle.Options{Type: c.Type, DSN: c.DSN, TablePrefix: c.TablePrefix}
}
