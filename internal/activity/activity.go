// Package activity records pack installations for auditing.
package activity

import (
	"context"
	"log/slog"
	"time"
)

// EventDatapacksInstalled is emitted after a successful install.
const EventDatapacksInstalled = "datapacks_installed"

// Record is one audited event.
type Record struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Event        string    `gorm:"index;not null" json:"event"`
	ServerUUID   string    `gorm:"index" json:"server_uuid"`
	User         string    `json:"user,omitempty"`
	World        string    `json:"world"`
	PackType     string    `json:"pack_type"`
	MCVersion    string    `json:"mc_version"`
	PacksCount   int       `json:"packs_count"`
	FilesWritten int       `json:"files_written"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// TableName pins the table name used by the store.
func (Record) TableName() string {
	return "activity_records"
}

// Sink receives activity records.
type Sink interface {
	Record(ctx context.Context, rec Record) error
}

// Lister is implemented by sinks that can return past records.
type Lister interface {
	Recent(ctx context.Context, serverUUID string, limit int) ([]Record, error)
}

// LogSink writes records to the default slog logger.
type LogSink struct{}

// Record logs rec at info level.
func (LogSink) Record(_ context.Context, rec Record) error {
	slog.Info("activity",
		"event", rec.Event,
		"server", rec.ServerUUID,
		"user", rec.User,
		"world", rec.World,
		"type", rec.PackType,
		"version", rec.MCVersion,
		"packs", rec.PacksCount,
		"files", rec.FilesWritten)
	return nil
}
