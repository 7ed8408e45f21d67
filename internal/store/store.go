// Package store holds the persistence contracts the broker core
// depends on, plus their Postgres implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/marminbh/event-broker/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned by Distributions.Update when the
// stored version no longer matches the one supplied. The caller must
// re-read and reapply its change.
var ErrVersionConflict = errors.New("distribution version conflict")

// Publishers provides access to registered publishers and their event
// definitions.
type Publishers interface {
	GetPublisher(ctx context.Context, code string) (*models.Publisher, error)
	UpsertPublisher(ctx context.Context, publisher *models.Publisher) error
}

// Events stores immutable event records.
type Events interface {
	Store(ctx context.Context, event *models.Event) error
	Get(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// Subscriptions provides access to subscriber registrations.
type Subscriptions interface {
	GetSubscriptionsForEvent(ctx context.Context, publisherCode, eventType string) ([]models.Subscription, error)
	GetSubscription(ctx context.Context, publisherCode, eventType string, id uuid.UUID) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, subscription *models.Subscription) error
}

// DistributionFilter narrows a distribution listing.
type DistributionFilter struct {
	EventID        *uuid.UUID
	SubscriptionID *uuid.UUID
	Status         *models.DistributionStatus
	Limit          int
	Offset         int
}

// Distributions stores mutable delivery records.
type Distributions interface {
	Create(ctx context.Context, distribution *models.Distribution) error
	Get(ctx context.Context, id, subscriptionID uuid.UUID) (*models.Distribution, error)
	// Update persists status/attempts/last_error conditionally on the
	// version the caller last read, bumping the version on success.
	Update(ctx context.Context, distribution *models.Distribution) error
	List(ctx context.Context, filter DistributionFilter) ([]models.Distribution, error)
	// ListStalled returns non-terminal distributions whose last update
	// is older than the given time, oldest first.
	ListStalled(ctx context.Context, olderThan time.Time, limit int) ([]models.Distribution, error)
}
