// Package delivery consumes queued distributions and posts event
// payloads to subscriber endpoints with bounded retry.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/store"
)

// Sender performs one delivery attempt for a distribution and advances
// its retry state.
type Sender struct {
	distributions store.Distributions
	events        store.Events
	subscriptions store.Subscriptions
	transport     Transport
	logger        *zap.Logger
}

func NewSender(
	distributions store.Distributions,
	events store.Events,
	subscriptions store.Subscriptions,
	transport Transport,
	logger *zap.Logger,
) *Sender {
	return &Sender{
		distributions: distributions,
		events:        events,
		subscriptions: subscriptions,
		transport:     transport,
		logger:        logger,
	}
}

// Send processes one queue message. Only the (id, subscriptionID) pair
// in the message is trusted; the authoritative record is re-read
// first, so duplicated or stale messages are handled safely. A nil
// return means the message can be acknowledged; an error means the
// updated state was persisted and the failure is surfaced to the
// queue layer.
func (s *Sender) Send(ctx context.Context, msg models.DistributionMessage) error {
	distribution, err := s.distributions.Get(ctx, msg.ID, msg.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to load distribution %s/%s: %w", msg.SubscriptionID, msg.ID, err)
	}

	if distribution.Status == models.StatusSent {
		s.logger.Info("Distribution already sent, skipping",
			zap.String("distribution_id", distribution.ID.String()),
			zap.String("subscription_id", distribution.SubscriptionID.String()),
		)
		return nil
	}

	event, err := s.events.Get(ctx, distribution.EventID)
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", distribution.EventID, err)
	}

	subscription, err := s.subscriptions.GetSubscription(ctx, event.PublisherCode, event.EventType, distribution.SubscriptionID)
	if err != nil {
		return fmt.Errorf("failed to load subscription %s for %s.%s: %w",
			distribution.SubscriptionID, event.PublisherCode, event.EventType, err)
	}

	distribution.Attempts++

	result, postErr := s.transport.Post(ctx, subscription.EndpointURL, []byte(event.Payload))
	if ctx.Err() != nil {
		// Cancelled mid-flight: leave the stored record untouched so
		// the attempt is neither counted nor reported as a failure.
		return ctx.Err()
	}

	if postErr == nil && result.Success() {
		distribution.Status = models.StatusSent
		distribution.LastError = nil
		if err := s.persist(ctx, distribution); err != nil {
			return err
		}
		s.logger.Info("Delivered event to subscriber",
			zap.String("event_id", event.ID.String()),
			zap.String("subscription_id", subscription.ID.String()),
			zap.String("endpoint", subscription.EndpointURL),
			zap.Int("attempts", distribution.Attempts),
		)
		return nil
	}

	failure := describeFailure(result, postErr)
	distribution.Status = nextFailureStatus(distribution.Attempts)
	distribution.LastError = &failure

	if err := s.persist(ctx, distribution); err != nil {
		return err
	}

	if distribution.Status == models.StatusSent {
		// A concurrent delivery of the same record succeeded while
		// this attempt was failing; nothing left to retry.
		return nil
	}

	if distribution.Status == models.StatusFailed {
		s.logger.Warn("Delivery failed permanently",
			zap.String("distribution_id", distribution.ID.String()),
			zap.String("subscription_id", subscription.ID.String()),
			zap.Int("attempts", distribution.Attempts),
			zap.String("error", failure),
		)
	} else {
		s.logger.Info("Delivery failed, will retry",
			zap.String("distribution_id", distribution.ID.String()),
			zap.String("subscription_id", subscription.ID.String()),
			zap.Int("attempts", distribution.Attempts),
			zap.String("error", failure),
		)
	}

	// State is persisted; the failure is still surfaced so the queue
	// layer sees the message as unprocessed.
	return fmt.Errorf("failed to deliver event %s to subscriber %s at %s: %s",
		event.ID, subscription.ID, subscription.EndpointURL, failure)
}

// persist writes the updated record, resolving version conflicts by
// re-reading and reapplying this attempt on top of the latest state.
func (s *Sender) persist(ctx context.Context, distribution *models.Distribution) error {
	for {
		err := s.distributions.Update(ctx, distribution)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}

		latest, getErr := s.distributions.Get(ctx, distribution.ID, distribution.SubscriptionID)
		if getErr != nil {
			return getErr
		}
		if latest.Status == models.StatusSent {
			// A concurrent delivery already succeeded; nothing to add.
			*distribution = *latest
			return nil
		}

		// This attempt happened on top of whatever the concurrent
		// writer recorded, so count it against the latest state.
		distribution.Version = latest.Version
		distribution.Attempts = latest.Attempts + 1
		if distribution.Status != models.StatusSent {
			distribution.Status = nextFailureStatus(distribution.Attempts)
		}
	}
}

func nextFailureStatus(attempts int) models.DistributionStatus {
	if attempts >= models.MaxAttempts {
		return models.StatusFailed
	}
	return models.StatusPendingRetry
}

func describeFailure(result *Result, postErr error) string {
	if postErr != nil {
		return postErr.Error()
	}
	return fmt.Sprintf("subscriber responded %d: %s", result.StatusCode, result.Body)
}
