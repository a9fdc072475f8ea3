package logging

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestPurgeExpired(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM "system_logs" WHERE timestamp < `).
		WithArgs(now.Add(-Retention)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	assert.Equal(t, int64(4), PurgeExpired(db, now))
	assert.NoError(t, mock.ExpectationsWereMet())
}
