package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marminbh/event-broker/internal/models"
)

type distributionStore struct {
	db *gorm.DB
}

// NewDistributionStore returns a Postgres-backed Distributions store.
func NewDistributionStore(db *gorm.DB) Distributions {
	return &distributionStore{db: db}
}

func (s *distributionStore) Create(ctx context.Context, distribution *models.Distribution) error {
	if err := s.db.WithContext(ctx).Create(distribution).Error; err != nil {
		return fmt.Errorf("failed to create distribution %s: %w", distribution.ID, err)
	}
	return nil
}

func (s *distributionStore) Get(ctx context.Context, id, subscriptionID uuid.UUID) (*models.Distribution, error) {
	var distribution models.Distribution
	err := s.db.WithContext(ctx).
		Where("id = ? AND subscription_id = ?", id, subscriptionID).
		First(&distribution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load distribution %s/%s: %w", subscriptionID, id, err)
	}
	return &distribution, nil
}

// Update writes status, attempts and last_error conditionally on the
// version the caller read. A zero-row update means another writer got
// there first.
func (s *distributionStore) Update(ctx context.Context, distribution *models.Distribution) error {
	result := s.db.WithContext(ctx).
		Model(&models.Distribution{}).
		Where("id = ? AND subscription_id = ? AND version = ?",
			distribution.ID, distribution.SubscriptionID, distribution.Version).
		Updates(map[string]interface{}{
			"status":     distribution.Status,
			"attempts":   distribution.Attempts,
			"last_error": distribution.LastError,
			"version":    distribution.Version + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update distribution %s/%s: %w",
			distribution.SubscriptionID, distribution.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	distribution.Version++
	return nil
}

func (s *distributionStore) List(ctx context.Context, filter DistributionFilter) ([]models.Distribution, error) {
	query := s.db.WithContext(ctx).Model(&models.Distribution{})

	if filter.EventID != nil {
		query = query.Where("event_id = ?", *filter.EventID)
	}
	if filter.SubscriptionID != nil {
		query = query.Where("subscription_id = ?", *filter.SubscriptionID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 25
	}

	var distributions []models.Distribution
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&distributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w", err)
	}
	return distributions, nil
}

func (s *distributionStore) ListStalled(ctx context.Context, olderThan time.Time, limit int) ([]models.Distribution, error) {
	var distributions []models.Distribution
	err := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?",
			[]models.DistributionStatus{models.StatusPending, models.StatusPendingRetry}, olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&distributions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled distributions: %w", err)
	}
	return distributions, nil
}
