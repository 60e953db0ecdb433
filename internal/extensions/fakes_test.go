package extensions

import (
	"context"
	"errors"
	"strings"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extdb"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/moodle"
)

// ── Fake Source ──

type fakeRows struct {
	rows []extdb.Row
	pos  int
	err  error
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Row() (extdb.Row, error) { return r.rows[r.pos-1], nil }
func (r *fakeRows) Err() error { return r.err }
func (r *fakeRows) Close() error { return nil }

type fakeSource struct {
	extensionRows []extdb.Row
	lateRows      []extdb.Row
	failOn        string
	queries       []string
	execs         []string
	closed        int
}

func (s *fakeSource) Query(_ context.Context, query string) (extdb.Rows, error) {
	s.queries = append(s.queries, query)
	if s.failOn != "" && strings.Contains(query, s.failOn) {
		return nil, errors.New("syntax error")
	}
	if strings.Contains(query, "JOIN") {
		return &fakeRows{rows: s.lateRows}, nil
	}
	return &fakeRows{rows: s.extensionRows}, nil
}

func (s *fakeSource) Exec(_ context.Context, query string) (int64, error) {
	s.execs = append(s.execs, query)
	return 1, nil
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

// ── Fake Store ──

type fakeStore struct {
	users       map[string]int64
	assignments map[string]int64

	flags     map[[2]int64]*moodle.UserFlagsOverride
	overrides map[[2]int64]*moodle.AssignmentOverride
	nextID    int64

	writes  int
	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]int64),
		assignments: make(map[string]int64),
		flags:       make(map[[2]int64]*moodle.UserFlagsOverride),
		overrides:   make(map[[2]int64]*moodle.AssignmentOverride),
	}
}

func (s *fakeStore) UserIDByUsername(_ context.Context, username string) (int64, error) {
	return s.users[username], nil
}

func (s *fakeStore) AssignmentIDByIDNumber(_ context.Context, idNumber string) (int64, error) {
	return s.assignments[idNumber], nil
}

func (s *fakeStore) FindUserFlags(_ context.Context, userID, assignID int64) (*moodle.UserFlagsOverride, error) {
	if f, ok := s.flags[[2]int64{userID, assignID}]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) CreateUserFlags(_ context.Context, flags *moodle.UserFlagsOverride) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.writes++
	s.nextID++
	flags.ID = s.nextID
	cp := *flags
	s.flags[[2]int64{flags.UserID, flags.Assignment}] = &cp
	return nil
}

func (s *fakeStore) UpdateExtensionDueDate(_ context.Context, id, dueDate int64) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.writes++
	for _, f := range s.flags {
		if f.ID == id {
			f.ExtensionDueDate = dueDate
			return nil
		}
	}
	return errors.New("no such user flags row")
}

func (s *fakeStore) FindAssignmentOverride(_ context.Context, userID, assignID int64) (*moodle.AssignmentOverride, error) {
	if o, ok := s.overrides[[2]int64{userID, assignID}]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeStore) CreateAssignmentOverride(_ context.Context, override *moodle.AssignmentOverride) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.writes++
	s.nextID++
	override.ID = s.nextID
	cp := *override
	s.overrides[[2]int64{*override.UserID, override.AssignID}] = &cp
	return nil
}

func (s *fakeStore) UpdateOverrideDates(_ context.Context, id int64, dueDate, cutoffDate *int64) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.writes++
	for _, o := range s.overrides {
		if o.ID == id {
			o.DueDate, o.CutoffDate = dueDate, cutoffDate
			return nil
		}
	}
	return errors.New("no such override row")
}
