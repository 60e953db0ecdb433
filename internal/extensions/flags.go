package extensions

import (
	"context"

	"go.uber.org/zap"
)

const changeFlagColumn = "assessment_changebydw"

// ResetChangeFlags clears the "changed by data warehouse" flag on both source
// tables. Rows flagged again between the reads and this reset lose the flag;
// the next run picks their data up regardless because it reads every row.
// Failures are logged and otherwise ignored.
func ResetChangeFlags(ctx context.Context, src Source, tables Tables, logger *zap.Logger) {
	for _, table := range []string{tables.StudentAssessments, tables.Assessments} {
		n, err := src.Exec(ctx, ChangeFlagResetStatement(table))
		if err != nil {
			logger.Warn("Failed to reset change flags", zap.String("table", table), zap.Error(err))
			continue
		}
		logger.Debug("Change flags reset", zap.String("table", table), zap.Int64("rows", n))
	}
}

func ChangeFlagResetStatement(table string) string {
	return "UPDATE " + table + " SET " + changeFlagColumn + " = 0 WHERE " + changeFlagColumn + " = 1"
}
