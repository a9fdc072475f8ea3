package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/wastehunt-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*GormStore)(nil)

// GormStore is the postgres backend.
type GormStore struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) FindOrCreateUser(ctx context.Context, u *models.User) (bool, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(u)
	if res.Error != nil {
		return false, fmt.Errorf("create user: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	existing, err := s.FindUserByExternalID(ctx, u.ExternalID)
	if err != nil {
		return false, err
	}
	*u = *existing
	return false, nil
}

func (s *GormStore) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, email string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "email": email})
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) IncrementUserPoints(ctx context.Context, externalID string, delta int) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("external_id = ?", externalID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", delta),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("increment points: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindUserByExternalID(ctx, externalID)
}

func (s *GormStore) TopUsers(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("name, total_points").
		Order("total_points DESC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	return entries, nil
}

func (s *GormStore) CreateReport(ctx context.Context, report *models.WasteReport, credit int) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(report).Error; err != nil {
			return fmt.Errorf("insert report: %w", err)
		}
		return creditUser(tx, report.ReporterID, credit)
	})
}

func (s *GormStore) FindReport(ctx context.Context, id uuid.UUID) (*models.WasteReport, error) {
	var report models.WasteReport
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find report: %w", err)
	}
	return &report, nil
}

func (s *GormStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.WasteReport, error) {
	q := s.db.WithContext(ctx).Model(&models.WasteReport{})
	if filter.OnlyOutstanding {
		q = q.Where("collected = ?", false)
	}
	if b := filter.Within; b != nil {
		q = q.Where("latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?",
			b.MinLatitude, b.MaxLatitude, b.MinLongitude, b.MaxLongitude)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var reports []models.WasteReport
	if err := q.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

func (s *GormStore) CompleteCollection(ctx context.Context, c Collection) (*models.WasteReport, error) {
	var updated models.WasteReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.WasteReport{}).
			Where("id = ? AND collected = ?", c.ReportID, false).
			Updates(map[string]interface{}{
				"collected":        true,
				"collected_by":     c.CollectorID,
				"collected_at":     c.At,
				"collection_proof": c.ProofURL,
			})
		if res.Error != nil {
			return fmt.Errorf("flip collected: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return missingOrCollected(tx, c.ReportID)
		}

		if err := creditUser(tx, c.CollectorID, c.Points); err != nil {
			return err
		}
		return tx.First(&updated, "id = ?", c.ReportID).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *GormStore) MarkCollected(ctx context.Context, id uuid.UUID, at time.Time) (*models.WasteReport, bool, error) {
	res := s.db.WithContext(ctx).Model(&models.WasteReport{}).
		Where("id = ? AND collected = ?", id, false).
		Updates(map[string]interface{}{"collected": true, "collected_at": at})
	if res.Error != nil {
		return nil, false, fmt.Errorf("mark collected: %w", res.Error)
	}

	report, err := s.FindReport(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return report, res.RowsAffected > 0, nil
}

func creditUser(tx *gorm.DB, userID uuid.UUID, points int) error {
	if points == 0 {
		return nil
	}
	res := tx.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", points),
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("credit user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func missingOrCollected(tx *gorm.DB, id uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.WasteReport{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check report: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrAlreadyCollected
}
