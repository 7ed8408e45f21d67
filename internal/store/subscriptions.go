package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marminbh/event-broker/internal/models"
)

type subscriptionStore struct {
	db *gorm.DB
}

// NewSubscriptionStore returns a Postgres-backed Subscriptions store.
func NewSubscriptionStore(db *gorm.DB) Subscriptions {
	return &subscriptionStore{db: db}
}

func (s *subscriptionStore) GetSubscriptionsForEvent(ctx context.Context, publisherCode, eventType string) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := s.db.WithContext(ctx).
		Where("publisher_code = ? AND event_type = ?", publisherCode, eventType).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions for %s.%s: %w", publisherCode, eventType, err)
	}
	return subscriptions, nil
}

func (s *subscriptionStore) GetSubscription(ctx context.Context, publisherCode, eventType string, id uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	err := s.db.WithContext(ctx).
		Where("id = ? AND publisher_code = ? AND event_type = ?", id, publisherCode, eventType).
		First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load subscription %s: %w", id, err)
	}
	return &subscription, nil
}

func (s *subscriptionStore) UpsertSubscription(ctx context.Context, subscription *models.Subscription) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"publisher_code", "event_type", "endpoint_url", "updated_at"}),
		}).
		Create(subscription).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", subscription.ID, err)
	}
	return nil
}
