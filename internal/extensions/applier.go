package extensions

import (
	"context"

	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/moodle"
)

// Store is the target platform as the applier sees it. Lookups return zero
// ids and finds return nil when nothing matches.
type Store interface {
	UserIDByUsername(ctx context.Context, username string) (int64, error)
	AssignmentIDByIDNumber(ctx context.Context, idNumber string) (int64, error)
	FindUserFlags(ctx context.Context, userID, assignID int64) (*moodle.UserFlagsOverride, error)
	CreateUserFlags(ctx context.Context, flags *moodle.UserFlagsOverride) error
	UpdateExtensionDueDate(ctx context.Context, id, dueDate int64) error
	FindAssignmentOverride(ctx context.Context, userID, assignID int64) (*moodle.AssignmentOverride, error)
	CreateAssignmentOverride(ctx context.Context, override *moodle.AssignmentOverride) error
	UpdateOverrideDates(ctx context.Context, id int64, dueDate, cutoffDate *int64) error
}

// Applier writes extension and late-submission decisions into the platform.
// Every write is an idempotent upsert keyed on (user, assignment).
type Applier struct {
	store  Store
	clock  *Clock
	logger *zap.Logger
}

func NewApplier(store Store, clock *Clock, logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{store: store, clock: clock, logger: logger}
}

type resolved struct {
	username string
	userID   int64
	assignID int64
}

// ApplyExtensions upserts user flags and an assignment override for every
// extension with a due date.
func (a *Applier) ApplyExtensions(ctx context.Context, set *ExtensionSet, report *Report) {
	for _, e := range set.All() {
		base := Decision{Kind: KindExtension, Key: e.Key}
		if e.DueDate == "" {
			base.Action, base.Reason = ActionSkipped, "no extension date"
			report.add(base)
			continue
		}

		due, err := a.clock.Timestamp(e.DueDate, e.DueTime, a.clock.SubmissionTime(e.AssessmentCode))
		if err != nil {
			a.skip(report, base, "bad extension date", err)
			continue
		}
		cutoff := a.cutoff(base, e.FeedbackDate, e.FeedbackTime)
		base.DueDate, base.CutoffDate = due, cutoff

		ids, ok := a.resolve(ctx, e.Key, report, base)
		if !ok {
			continue
		}
		base.Username, base.UserID, base.AssignID = ids.username, ids.userID, ids.assignID

		d := base
		d.Target = TargetUserFlags
		d.Action, err = a.upsertUserFlags(ctx, ids.userID, ids.assignID, due)
		a.record(report, d, err)

		d = base
		d.Target = TargetOverride
		d.Action, err = a.upsertOverride(ctx, ids.userID, ids.assignID, due, cutoff)
		a.record(report, d, err)
	}
}

// ApplyLates upserts an assignment override holding the nominal due date and
// the feedback date for each late submission. User flags are left alone.
func (a *Applier) ApplyLates(ctx context.Context, set *LateSet, report *Report) {
	for _, l := range set.All() {
		base := Decision{Kind: KindLate, Key: l.Key}

		due, err := a.clock.Timestamp(l.DueDate, l.DueTime, a.clock.SubmissionTime(l.AssessmentCode))
		if err != nil {
			a.skip(report, base, "bad due date", err)
			continue
		}
		cutoff := a.cutoff(base, l.FeedbackDate, l.FeedbackTime)
		base.DueDate, base.CutoffDate = due, cutoff
		if due == 0 {
			base.Action, base.Reason = ActionSkipped, "no due date"
			report.add(base)
			continue
		}

		ids, ok := a.resolve(ctx, l.Key, report, base)
		if !ok {
			continue
		}
		base.Username, base.UserID, base.AssignID = ids.username, ids.userID, ids.assignID

		d := base
		d.Target = TargetOverride
		d.Action, err = a.upsertOverride(ctx, ids.userID, ids.assignID, due, cutoff)
		a.record(report, d, err)
	}
}

// resolve finds the platform user and assignment for key. A record that does
// not resolve is skipped, never an error for the run.
func (a *Applier) resolve(ctx context.Context, key Key, report *Report, base Decision) (resolved, bool) {
	username, ok := Username(key.StudentCode)
	if !ok {
		a.logger.Warn("Student code is not 7 characters",
			zap.String("kind", string(base.Kind)),
			zap.String("username", username))
	}
	base.Username = username

	userID, err := a.store.UserIDByUsername(ctx, username)
	if err != nil {
		a.record(report, base, err)
		return resolved{}, false
	}
	assignID, err := a.store.AssignmentIDByIDNumber(ctx, key.AssessmentCode)
	if err != nil {
		a.record(report, base, err)
		return resolved{}, false
	}
	base.UserID, base.AssignID = userID, assignID

	if userID == 0 || assignID == 0 {
		base.Action, base.Reason = ActionSkipped, "user or assignment not found"
		a.logger.Debug("Skipping unresolved record",
			zap.String("username", username),
			zap.String("assessment", key.AssessmentCode),
			zap.Int64("user_id", userID),
			zap.Int64("assign_id", assignID))
		report.add(base)
		return resolved{}, false
	}
	return resolved{username: username, userID: userID, assignID: assignID}, true
}

func (a *Applier) upsertUserFlags(ctx context.Context, userID, assignID, due int64) (Action, error) {
	existing, err := a.store.FindUserFlags(ctx, userID, assignID)
	if err != nil {
		return ActionFailed, err
	}
	if existing != nil {
		if existing.ExtensionDueDate == due {
			return ActionUnchanged, nil
		}
		if err := a.store.UpdateExtensionDueDate(ctx, existing.ID, due); err != nil {
			return ActionFailed, err
		}
		return ActionUpdated, nil
	}

	flags := &moodle.UserFlagsOverride{
		UserID:           userID,
		Assignment:       assignID,
		ExtensionDueDate: due,
		Locked:           0,
		Mailed:           0,
		WorkflowState:    "0",
		AllocatedMarker:  0,
	}
	if err := a.store.CreateUserFlags(ctx, flags); err != nil {
		return ActionFailed, err
	}
	return ActionCreated, nil
}

func (a *Applier) upsertOverride(ctx context.Context, userID, assignID, due, cutoff int64) (Action, error) {
	existing, err := a.store.FindAssignmentOverride(ctx, userID, assignID)
	if err != nil {
		return ActionFailed, err
	}
	if existing != nil {
		if value(existing.DueDate) == due && value(existing.CutoffDate) == cutoff {
			return ActionUnchanged, nil
		}
		if err := a.store.UpdateOverrideDates(ctx, existing.ID, nullable(due), nullable(cutoff)); err != nil {
			return ActionFailed, err
		}
		return ActionUpdated, nil
	}

	override := &moodle.AssignmentOverride{
		AssignID:   assignID,
		UserID:     &userID,
		DueDate:    nullable(due),
		CutoffDate: nullable(cutoff),
	}
	if err := a.store.CreateAssignmentOverride(ctx, override); err != nil {
		return ActionFailed, err
	}
	return ActionCreated, nil
}

// cutoff is the feedback timestamp. An unparseable feedback date leaves the
// cutoff unset rather than dropping the record.
func (a *Applier) cutoff(d Decision, date, clock string) int64 {
	ts, err := a.clock.Timestamp(date, clock, DefaultFeedbackTime)
	if err != nil {
		a.logger.Warn("Ignoring bad feedback date",
			zap.String("kind", string(d.Kind)),
			zap.String("student_code", d.Key.StudentCode),
			zap.String("assessment", d.Key.AssessmentCode),
			zap.Error(err))
		return 0
	}
	return ts
}

func (a *Applier) skip(report *Report, d Decision, reason string, err error) {
	d.Action, d.Reason = ActionSkipped, reason
	a.logger.Warn("Skipping record",
		zap.String("kind", string(d.Kind)),
		zap.String("student_code", d.Key.StudentCode),
		zap.String("assessment", d.Key.AssessmentCode),
		zap.String("reason", reason),
		zap.Error(err))
	report.add(d)
}

func (a *Applier) record(report *Report, d Decision, err error) {
	if err != nil {
		d.Action, d.Reason = ActionFailed, err.Error()
		a.logger.Error("Target store write failed",
			zap.String("kind", string(d.Kind)),
			zap.String("target", string(d.Target)),
			zap.String("username", d.Username),
			zap.String("assessment", d.Key.AssessmentCode),
			zap.Error(err))
	}
	report.add(d)
}

// 0 is stored as NULL so the override falls back to the assignment's own date.
func nullable(ts int64) *int64 {
	if ts == 0 {
		return nil
	}
	return &ts
}

func value(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
