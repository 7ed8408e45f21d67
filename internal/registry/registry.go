// Package registry manages publisher and subscription registrations.
package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/schema"
	"github.com/marminbh/event-broker/internal/store"
)

// PublisherDocument is the wire format for registering a publisher and
// its published events. Shared definitions are merged into each event
// schema before it is stored.
type PublisherDocument struct {
	Info struct {
		Code        string `json:"code"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Version     string `json:"version"`
	} `json:"info"`
	Events      map[string]PublisherEventDocument `json:"events"`
	Definitions json.RawMessage                   `json:"definitions"`
}

type PublisherEventDocument struct {
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema"`
}

// Registry upserts publishers and subscriptions.
type Registry struct {
	publishers    store.Publishers
	subscriptions store.Subscriptions
	logger        *zap.Logger
}

func New(publishers store.Publishers, subscriptions store.Subscriptions, logger *zap.Logger) *Registry {
	return &Registry{
		publishers:    publishers,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// UpdatePublishedEvents converts a publisher document into a publisher
// record and upserts it. Every event schema gets the document's shared
// definitions merged in and must compile; a schema that does not is
// rejected here rather than at ingestion time.
func (r *Registry) UpdatePublishedEvents(ctx context.Context, doc *PublisherDocument) (*models.Publisher, error) {
	if doc.Info.Code == "" {
		return nil, fmt.Errorf("publisher code is required")
	}

	events := make([]models.EventDefinition, 0, len(doc.Events))
	for name, eventDoc := range doc.Events {
		merged, err := schema.MergeDefinitions(eventDoc.Schema, doc.Definitions)
		if err != nil {
			return nil, fmt.Errorf("invalid schema for event %s: %w", name, err)
		}
		if err := schema.Compile(merged); err != nil {
			return nil, fmt.Errorf("invalid schema for event %s: %w", name, err)
		}
		events = append(events, models.EventDefinition{
			PublisherCode: doc.Info.Code,
			Name:          name,
			Description:   eventDoc.Description,
			Schema:        merged,
		})
	}

	publisher := &models.Publisher{
		Code:        doc.Info.Code,
		Name:        doc.Info.Name,
		Description: doc.Info.Description,
		Version:     doc.Info.Version,
		Events:      events,
	}

	if err := r.publishers.UpsertPublisher(ctx, publisher); err != nil {
		return nil, err
	}

	r.logger.Info("Updated publisher",
		zap.String("publisher", publisher.Code),
		zap.Int("events", len(publisher.Events)),
	)
	return publisher, nil
}

// UpdateSubscription upserts a subscription, generating an id when none
// is supplied.
func (r *Registry) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	if subscription.ID == uuid.Nil {
		subscription.ID = uuid.New()
		r.logger.Debug("No subscription id provided, generated one",
			zap.String("subscription_id", subscription.ID.String()),
		)
	}

	if err := r.subscriptions.UpsertSubscription(ctx, subscription); err != nil {
		return err
	}

	r.logger.Info("Stored subscription",
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("publisher", subscription.PublisherCode),
		zap.String("event_type", subscription.EventType),
	)
	return nil
}
