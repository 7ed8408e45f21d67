package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marminbh/event-broker/internal/models"
)

type eventStore struct {
	db *gorm.DB
}

// NewEventStore returns a Postgres-backed Events store.
func NewEventStore(db *gorm.DB) Events {
	return &eventStore{db: db}
}

func (s *eventStore) Store(ctx context.Context, event *models.Event) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to store event %s: %w", event.ID, err)
	}
	return nil
}

func (s *eventStore) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load event %s: %w", id, err)
	}
	return &event, nil
}
