package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/marminbh/event-broker/internal/models"
)

type publisherStore struct {
	db *gorm.DB
}

// NewPublisherStore returns a Postgres-backed Publishers store.
func NewPublisherStore(db *gorm.DB) Publishers {
	return &publisherStore{db: db}
}

func (s *publisherStore) GetPublisher(ctx context.Context, code string) (*models.Publisher, error) {
	var publisher models.Publisher
	err := s.db.WithContext(ctx).
		Preload("Events").
		Where("code = ?", code).
		First(&publisher).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load publisher %s: %w", code, err)
	}
	return &publisher, nil
}

// UpsertPublisher replaces the publisher row and its full set of event
// definitions in one transaction.
func (s *publisherStore) UpsertPublisher(ctx context.Context, publisher *models.Publisher) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Events").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "description", "version", "updated_at"}),
			}).
			Create(publisher).Error; err != nil {
			return fmt.Errorf("failed to upsert publisher %s: %w", publisher.Code, err)
		}

		if err := tx.Where("publisher_code = ?", publisher.Code).
			Delete(&models.EventDefinition{}).Error; err != nil {
			return fmt.Errorf("failed to clear event definitions for %s: %w", publisher.Code, err)
		}

		if len(publisher.Events) == 0 {
			return nil
		}
		for i := range publisher.Events {
			publisher.Events[i].PublisherCode = publisher.Code
		}
		if err := tx.Create(&publisher.Events).Error; err != nil {
			return fmt.Errorf("failed to store event definitions for %s: %w", publisher.Code, err)
		}
		return nil
	})
}
