package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/echonotes/backend/pkg/gen"
	"github.com/echonotes/backend/pkg/logger"
	"github.com/echonotes/backend/services/notes/entity"
)

type Storage interface {
	Save(ctx context.Context, userID string, draft *entity.Note) (*entity.Note, error)
	List(ctx context.Context, userID string) ([]*entity.Note, error)
	Delete(ctx context.Context, userID string, id string) error
	Configured() bool
}

type storage struct {
	db  *gorm.DB
	gen gen.UUIDGenerator
}

// New wraps a database handle. A nil db is a valid unconfigured store:
// saves fail with entity.ErrNotConfigured and lists come back empty.
func New(db *gorm.DB, g gen.UUIDGenerator) Storage {
	return &storage{
		db:  db,
		gen: g,
	}
}

// IsConfiguredDSN reports whether dsn is a usable connection string
// rather than an unset or scaffold placeholder value.
func IsConfiguredDSN(dsn string) bool {
	return dsn != "" && !strings.Contains(dsn, "placeholder")
}

// NewDB opens the document store. Returns nil without error when the
// DSN is absent or a placeholder, so callers can build an unconfigured
// store instead of failing startup.
func NewDB(dsn string, log *slog.Logger) (*gorm.DB, error) {
	if !IsConfiguredDSN(dsn) {
		log.Warn("document store not configured, notes will not be persisted")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}

	if err := db.AutoMigrate(&noteModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notes table: %w", err)
	}

	log.Info("document store connected")
	return db, nil
}

// NewTestDB opens an in-memory sqlite store, used by tests.
func NewTestDB() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access db handle: %w", err)
	}
	// One connection, or every pooled conn gets its own empty memory db.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&noteModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notes table: %w", err)
	}

	return db, nil
}

func (s *storage) Configured() bool {
	return s.db != nil
}

func (s *storage) Save(ctx context.Context, userID string, draft *entity.Note) (*entity.Note, error) {
	log := logger.FromContext(ctx)

	if userID == "" {
		return nil, entity.ErrUnauthorized
	}
	if !s.Configured() {
		return nil, entity.ErrNotConfigured
	}

	m := fromEntity(draft)
	m.ID = s.gen.Next().String()
	m.UserID = userID
	m.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		log.Error("failed to save note", "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %s", entity.ErrPersistenceFailed, err)
	}
	log.Debug("saved note", "id", m.ID, "user_id", userID)

	return m.toEntity(), nil
}

func (s *storage) List(ctx context.Context, userID string) ([]*entity.Note, error) {
	log := logger.FromContext(ctx)

	if userID == "" || !s.Configured() {
		return []*entity.Note{}, nil
	}

	var models []*noteModel
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		log.Error("failed to list notes", "error", err, "user_id", userID)
		return nil, fmt.Errorf("%w: %s", entity.ErrPersistenceFailed, err)
	}

	notes := make([]*entity.Note, len(models))
	for i, m := range models {
		notes[i] = m.toEntity()
	}

	return notes, nil
}

func (s *storage) Delete(ctx context.Context, userID string, id string) error {
	log := logger.FromContext(ctx)

	if userID == "" || !s.Configured() {
		return nil
	}

	// Scoped to the owner: a missing row or someone else's note is a
	// silent no-op, so existence never leaks across owners.
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&noteModel{}).Error
	if err != nil {
		log.Error("failed to delete note", "error", err, "id", id, "user_id", userID)
		return fmt.Errorf("%w: %s", entity.ErrPersistenceFailed, err)
	}

	return nil
}
