package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Retention is how long system_logs rows are kept.
const Retention = 30 * 24 * time.Hour

// StartCleanup schedules the daily deletion of expired system_logs. Stop the
// returned scheduler on shutdown.
func StartCleanup(db *gorm.DB) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("@daily", func() { PurgeExpired(db, time.Now()) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// PurgeExpired deletes rows older than Retention relative to now.
func PurgeExpired(db *gorm.DB, now time.Time) int64 {
	cutoff := now.Add(-Retention)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
