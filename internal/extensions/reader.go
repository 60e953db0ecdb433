package extensions

import (
	"context"
	"fmt"
	"strings"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extdb"
)

// Source is the external records database as the sync sees it.
type Source interface {
	Query(ctx context.Context, query string) (extdb.Rows, error)
	Exec(ctx context.Context, query string) (int64, error)
	Close() error
}

// Tables names the two records-system tables the sync reads.
type Tables struct {
	Assessments        string
	StudentAssessments string
}

// ReadExtensions reads every student assessment row and keeps the ones that
// name an assessment and carry an extension date or time.
func ReadExtensions(ctx context.Context, src Source, tables Tables) (*ExtensionSet, error) {
	set := NewSet[Extension]()
	err := scan(ctx, src, "SELECT * FROM "+tables.StudentAssessments, func(row extdb.Row) {
		e := Extension{
			Key:          Key{StudentCode: field(row, "student_code"), AssessmentCode: field(row, "assessment_idcode")},
			DueDate:      field(row, "student_ext_duedate"),
			DueTime:      field(row, "student_ext_duetime"),
			FeedbackDate: field(row, "student_fbdue_date"),
			FeedbackTime: field(row, "student_fbdue_time"),
		}
		if e.AssessmentCode == "" || (e.DueDate == "" && e.DueTime == "") {
			return
		}
		set.Put(e)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// LateSubmissionsQuery selects submissions received after the nominal due
// date where no extension date is on file.
func LateSubmissionsQuery(tables Tables) string {
	return "SELECT a.assessment_idcode, sa.student_code AS student_code," +
		" a.assessment_duedate AS duedate, a.assessment_duetime AS duetime, sa.received_date," +
		" sa.received_time, sa.student_fbdue_date, sa.student_fbdue_time" +
		" FROM " + tables.StudentAssessments + " sa" +
		" JOIN " + tables.Assessments + " a ON sa.assessment_idcode = a.assessment_idcode" +
		" WHERE sa.student_ext_duedate IS NULL" +
		" AND sa.received_date > a.assessment_duedate"
}

// ReadLateSubmissions reads late submissions. Keys already present in
// extensions are left out: an extension always takes precedence.
func ReadLateSubmissions(ctx context.Context, src Source, tables Tables, extensions *ExtensionSet) (*LateSet, error) {
	set := NewSet[LateSubmission]()
	err := scan(ctx, src, LateSubmissionsQuery(tables), func(row extdb.Row) {
		l := LateSubmission{
			Key:          Key{StudentCode: field(row, "student_code"), AssessmentCode: field(row, "assessment_idcode")},
			DueDate:      field(row, "duedate"),
			DueTime:      field(row, "duetime"),
			ReceivedDate: field(row, "received_date"),
			ReceivedTime: field(row, "received_time"),
			FeedbackDate: field(row, "student_fbdue_date"),
			FeedbackTime: field(row, "student_fbdue_time"),
		}
		if l.AssessmentCode == "" {
			return
		}
		if extensions != nil && extensions.Has(l.Key) {
			return
		}
		set.Put(l)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

func scan(ctx context.Context, src Source, query string, fn func(extdb.Row)) error {
	rows, err := src.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		row, err := rows.Row()
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		fn(row)
	}
	return rows.Err()
}

func field(row extdb.Row, name string) string {
	return strings.TrimSpace(row[name])
}
