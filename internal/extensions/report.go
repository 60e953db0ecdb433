package extensions

import "time"

type Kind string

const (
	KindExtension Kind = "extension"
	KindLate      Kind = "late"
)

type Target string

const (
	TargetUserFlags Target = "assign_user_flags"
	TargetOverride  Target = "assign_overrides"
)

type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionSkipped   Action = "skipped"
	ActionFailed    Action = "failed"
)

// Decision records what happened to one record against one target table.
// Skipped records have no target.
type Decision struct {
	Kind       Kind
	Key        Key
	Username   string
	UserID     int64
	AssignID   int64
	Target     Target
	Action     Action
	DueDate    int64
	CutoffDate int64
	Reason     string
}

type Report struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	ExtensionsRead int
	LatesRead      int
	Decisions      []Decision
}

func (r *Report) add(d Decision) {
	r.Decisions = append(r.Decisions, d)
}

// Count returns how many decisions ended in action. An empty target counts
// across all targets.
func (r *Report) Count(target Target, action Action) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Action == action && (target == "" || d.Target == target) {
			n++
		}
	}
	return n
}
