// Package ingest accepts event publications, validates them and fans
// them out to subscribers as queued distributions.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/queue"
	"github.com/marminbh/event-broker/internal/schema"
	"github.com/marminbh/event-broker/internal/store"
)

// Service is the ingestion engine. It validates an incoming payload
// against the publisher's event schema, persists the event, and
// creates one queued distribution per matching subscription.
type Service struct {
	publishers    store.Publishers
	events        store.Events
	subscriptions store.Subscriptions
	distributions store.Distributions
	queue         queue.DistributionQueue
	logger        *zap.Logger
}

// NewService creates an ingestion service with its collaborators.
func NewService(
	publishers store.Publishers,
	events store.Events,
	subscriptions store.Subscriptions,
	distributions store.Distributions,
	distributionQueue queue.DistributionQueue,
	logger *zap.Logger,
) *Service {
	return &Service{
		publishers:    publishers,
		events:        events,
		subscriptions: subscriptions,
		distributions: distributions,
		queue:         distributionQueue,
		logger:        logger,
	}
}

// Ingest accepts one event publication and returns the id of the
// stored event. Request problems are reported as *InvalidRequestError
// with a stable code; anything else is an internal failure.
//
// Fan-out count is fixed at ingestion time: one distribution per
// subscription matching (publisherCode, eventType) right now, each
// created in the store before it is enqueued.
func (s *Service) Ingest(ctx context.Context, publisherCode, eventType string, payload []byte) (uuid.UUID, error) {
	if !json.Valid(payload) {
		return uuid.Nil, newInvalidRequest(CodePayloadNotJSON,
			"the supplied payload is not valid JSON")
	}

	publisher, err := s.publishers.GetPublisher(ctx, publisherCode)
	if err != nil {
		if err == store.ErrNotFound {
			return uuid.Nil, newInvalidRequest(CodeSourceNotFound,
				"no publisher registered with code %s", publisherCode)
		}
		return uuid.Nil, fmt.Errorf("failed to resolve publisher %s: %w", publisherCode, err)
	}

	definition := publisher.FindEvent(eventType)
	if definition == nil {
		return uuid.Nil, newInvalidRequest(CodeEventNotFound,
			"publisher %s does not publish event %s", publisherCode, eventType)
	}

	validationErrors, err := schema.Validate(definition.Schema, payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to validate payload for %s.%s: %w", publisherCode, eventType, err)
	}
	if len(validationErrors) > 0 {
		return uuid.Nil, newInvalidRequest(CodePayloadInvalid,
			"payload does not match schema for %s.%s: %s",
			publisherCode, eventType, strings.Join(validationErrors, "; "))
	}

	event := &models.Event{
		ID:            uuid.New(),
		PublisherCode: publisherCode,
		EventType:     eventType,
		Payload:       string(payload),
	}
	if err := s.events.Store(ctx, event); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store event: %w", err)
	}

	subscriptions, err := s.subscriptions.GetSubscriptionsForEvent(ctx, publisherCode, eventType)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load subscriptions for %s.%s: %w", publisherCode, eventType, err)
	}

	for i := range subscriptions {
		if err := s.distribute(ctx, event, &subscriptions[i]); err != nil {
			return uuid.Nil, err
		}
	}

	s.logger.Info("Ingested event",
		zap.String("event_id", event.ID.String()),
		zap.String("publisher", publisherCode),
		zap.String("event_type", eventType),
		zap.Int("distributions", len(subscriptions)),
	)
	return event.ID, nil
}

// distribute creates one pending distribution for a subscription and
// enqueues it. The create must land before the enqueue so the queue
// never references a record that does not exist yet.
func (s *Service) distribute(ctx context.Context, event *models.Event, subscription *models.Subscription) error {
	distribution := &models.Distribution{
		ID:             uuid.New(),
		SubscriptionID: subscription.ID,
		EventID:        event.ID,
		Status:         models.StatusPending,
		Attempts:       0,
	}

	if err := s.distributions.Create(ctx, distribution); err != nil {
		return fmt.Errorf("failed to create distribution for subscription %s: %w", subscription.ID, err)
	}
	if err := s.queue.Enqueue(ctx, distribution); err != nil {
		// The pending record stays behind; the retry scheduler sweeps
		// it up once its age exceeds the backoff window.
		return fmt.Errorf("failed to enqueue distribution %s: %w", distribution.ID, err)
	}
	return nil
}
