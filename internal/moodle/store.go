// Package moodle reads and writes the handful of Moodle tables the extension
// sync touches. Table names carry the site's configured prefix.
package moodle

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	tableUser          = "user"
	tableCourseModules = "course_modules"
	tableUserFlags     = "assign_user_flags"
	tableOverrides     = "assign_overrides"
)

type Options struct {
	Type        string
	DSN         string
	TablePrefix string
}

type Store struct {
	db     *gorm.DB
	prefix string
}

// Open connects to the Moodle database with the gorm driver matching opts.Type.
func Open(opts Options, logger *zap.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch opts.Type {
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported moodle database type %q", opts.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewGormLogger(logger),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect moodle database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("moodle sql.DB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("moodle database ping: %w", err)
	}

	return NewStore(db, opts.TablePrefix), nil
}

func NewStore(db *gorm.DB, prefix string) *Store {
	return &Store{db: db, prefix: prefix}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) table(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.prefix + name)
}

// UserIDByUsername returns 0 when no user has that username.
func (s *Store) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.table(ctx, tableUser).
		Select("id").
		Where("username = ?", username).
		Limit(1).
		Scan(&id).Error
	return id, err
}

// AssignmentIDByIDNumber resolves the assign instance behind the course module
// whose idnumber is the assessment code. Returns 0 when nothing matches.
func (s *Store) AssignmentIDByIDNumber(ctx context.Context, idNumber string) (int64, error) {
	var instance int64
	err := s.table(ctx, tableCourseModules).
		Select("instance").
		Where("idnumber = ?", idNumber).
		Limit(1).
		Scan(&instance).Error
	return instance, err
}

// FindUserFlags returns nil, nil when the pair has no row yet.
func (s *Store) FindUserFlags(ctx context.Context, userID, assignID int64) (*UserFlagsOverride, error) {
	var flags UserFlagsOverride
	err := s.table(ctx, tableUserFlags).
		Where("userid = ? AND assignment = ?", userID, assignID).
		Take(&flags).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flags, nil
}

func (s *Store) CreateUserFlags(ctx context.Context, flags *UserFlagsOverride) error {
	return s.table(ctx, tableUserFlags).Create(flags).Error
}

func (s *Store) UpdateExtensionDueDate(ctx context.Context, id, dueDate int64) error {
	return s.table(ctx, tableUserFlags).
		Where("id = ?", id).
		Update("extensionduedate", dueDate).Error
}

// FindAssignmentOverride returns nil, nil when the pair has no row yet.
func (s *Store) FindAssignmentOverride(ctx context.Context, userID, assignID int64) (*AssignmentOverride, error) {
	var override AssignmentOverride
	err := s.table(ctx, tableOverrides).
		Where("userid = ? AND assignid = ?", userID, assignID).
		Take(&override).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &override, nil
}

func (s *Store) CreateAssignmentOverride(ctx context.Context, override *AssignmentOverride) error {
	return s.table(ctx, tableOverrides).Create(override).Error
}

func (s *Store) UpdateOverrideDates(ctx context.Context, id int64, dueDate, cutoffDate *int64) error {
	return s.table(ctx, tableOverrides).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"duedate":    dueDate,
			"cutoffdate": cutoffDate,
		}).Error
}
