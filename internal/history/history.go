// Package history persists submitted filter queries and their outcomes so
// the console can offer a "recent queries" list across restarts.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marisklase/darkwatch/internal/model"
)

// QueryRecord is one submitted filter query. Superseded states are appended,
// never updated, mirroring the replace-not-mutate filter lifecycle.
type QueryRecord struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestID       string    `gorm:"uniqueIndex;column:request_id" json:"request_id"`
	EEZIDs          string    `gorm:"column:eez_ids" json:"eez_ids"` // JSON array string
	StartDate       string    `gorm:"column:start_date" json:"start_date"`
	EndDate         string    `gorm:"column:end_date" json:"end_date"`
	IncludeClusters bool      `gorm:"column:include_clusters" json:"include_clusters"`
	IncludeRoutes   bool      `gorm:"column:include_routes" json:"include_routes"`
	IncludeStats    bool      `gorm:"column:include_stats" json:"include_stats"`
	Outcome         string    `gorm:"column:outcome" json:"outcome"`
	Message         string    `gorm:"column:message" json:"message"`
	Detections      int       `gorm:"column:detections" json:"detections"`
	DurationMs      int64     `gorm:"column:duration_ms" json:"duration_ms"`
	SubmittedAt     time.Time `gorm:"column:submitted_at" json:"submitted_at"`
}

func (QueryRecord) TableName() string { return "query_history" }

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.AutoMigrate(&QueryRecord{}); err != nil {
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordOutcome appends the terminal result of one lifecycle.
func (s *Store) RecordOutcome(f model.FilterState, outcome, message string, detections int, duration time.Duration) error {
	ids, _ := json.Marshal(f.EEZIDs)
	rec := QueryRecord{
		RequestID:       f.RequestID,
		EEZIDs:          string(ids),
		StartDate:       f.StartDate,
		EndDate:         f.EndDate,
		IncludeClusters: f.Flags.IncludeClusters,
		IncludeRoutes:   f.Flags.IncludeRoutes,
		IncludeStats:    f.Flags.IncludeStats,
		Outcome:         outcome,
		Message:         message,
		Detections:      detections,
		DurationMs:      duration.Milliseconds(),
		SubmittedAt:     f.SubmittedAt,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("record query outcome: %w", err)
	}
	return nil
}

// Recent returns the newest records, newest first.
func (s *Store) Recent(limit int) ([]QueryRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []QueryRecord
	if err := s.db.Order("submitted_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load recent queries: %w", err)
	}
	return out, nil
}
