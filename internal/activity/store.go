package activity

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultLimit is used by Recent when limit is not positive.
const DefaultLimit = 50

// Store persists records in a SQLite database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// slogWriter routes gorm's logger through slog.
type slogWriter struct{}

func (slogWriter) Printf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "activity-db")
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	logger := gormlogger.New(slogWriter{}, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(gormlite.Open(path), &gorm.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("open activity database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate activity schema: %w", err)
	}

	slog.Debug("activity database ready", "path", path)
	return &Store{db: db, now: time.Now}, nil
}

// Record inserts rec. A zero CreatedAt is set to the current time.
func (s *Store) Record(ctx context.Context, rec Record) error {
	rec.ID = 0
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert activity record: %w", err)
	}
	return nil
}

// Recent returns the newest records for serverUUID, newest first. An empty
// serverUUID returns records for every server.
func (s *Store) Recent(ctx context.Context, serverUUID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit)
	if serverUUID != "" {
		q = q.Where("server_uuid = ?", serverUUID)
	}

	var records []Record
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query activity records: %w", err)
	}
	return records, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
