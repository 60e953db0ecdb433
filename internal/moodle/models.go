package moodle

// UserFlagsOverride is a row of assign_user_flags: per-student state for one
// assignment, including the granted extension due date.
type UserFlagsOverride struct {
	ID               int64  `gorm:"column:id;primaryKey"`
	UserID           int64  `gorm:"column:userid"`
	Assignment       int64  `gorm:"column:assignment"`
	Locked           int64  `gorm:"column:locked"`
	Mailed           int64  `gorm:"column:mailed"`
	ExtensionDueDate int64  `gorm:"column:extensionduedate"`
	WorkflowState    string `gorm:"column:workflowstate"`
	AllocatedMarker  int64  `gorm:"column:allocatedmarker"`
}

// AssignmentOverride is a row of assign_overrides restricted to one user.
type AssignmentOverride struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	AssignID   int64  `gorm:"column:assignid"`
	GroupID    *int64 `gorm:"column:groupid"`
	UserID     *int64 `gorm:"column:userid"`
	SortOrder  *int64 `gorm:"column:sortorder"`
	DueDate    *int64 `gorm:"column:duedate"`
	CutoffDate *int64 `gorm:"column:cutoffdate"`
}
