package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGorm(db), mock
}

func TestGormCompleteCollection_Success(t *testing.T) {
	s, mock := newMockStore(t)
	reportID := uuid.New()
	collectorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "waste_reports" SET .*collected.*WHERE id = .* AND collected = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET .*total_points`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "waste_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collected", "collection_proof"}).
			AddRow(reportID.String(), true, "https://cdn.example/proof.jpg"))
	mock.ExpectCommit()

	report, err := s.CompleteCollection(context.Background(), Collection{
		ReportID:    reportID,
		CollectorID: collectorID,
		ProofURL:    "https://cdn.example/proof.jpg",
		At:          time.Now(),
		Points:      10,
	})
	require.NoError(t, err)
	assert.True(t, report.Collected)
	assert.Equal(t, reportID, report.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCompleteCollection_MissingCollectorRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "waste_reports" SET .*collected`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "users" SET .*total_points`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.CompleteCollection(context.Background(), Collection{
		ReportID: uuid.New(), CollectorID: uuid.New(), At: time.Now(), Points: 10,
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCompleteCollection_LostFlip(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "waste_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "waste_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	_, err := s.CompleteCollection(context.Background(), Collection{
		ReportID:    uuid.New(),
		CollectorID: uuid.New(),
		At:          time.Now(),
		Points:      10,
	})
	assert.ErrorIs(t, err, ErrAlreadyCollected)
	assert.NoError(t, mock.ExpectationsWereMet(), "no points update may run after a lost flip")
}

func TestGormCompleteCollection_Missing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "waste_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "waste_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	_, err := s.CompleteCollection(context.Background(), Collection{ReportID: uuid.New(), CollectorID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormIncrementUserPoints_Unknown(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "users" SET .*total_points`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := s.IncrementUserPoints(context.Background(), "user_missing", 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormIncrementUserPoints(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "users" SET .*total_points`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE external_id = `).
		WillReturnRows(sqlmock.NewRows([]string{"id", "external_id", "name", "total_points"}).
			AddRow(uuid.New().String(), "user_1", "Asha", 25))

	user, err := s.IncrementUserPoints(context.Background(), "user_1", 5)
	require.NoError(t, err)
	assert.Equal(t, 25, user.TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTopUsers(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name, total_points FROM "users" ORDER BY total_points DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "total_points"}).
			AddRow("Asha", 40).
			AddRow("Ravi", 15))

	entries, err := s.TopUsers(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Asha", entries[0].Name)
	assert.Equal(t, 40, entries[0].TotalPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormMarkCollected_AlreadyCollected(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "waste_reports"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "waste_reports"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "collected"}).AddRow(id.String(), true))

	report, changed, err := s.MarkCollected(context.Background(), id, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, report.Collected)
}
