// Package queue carries distributions to the delivery worker.
package queue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/marminbh/event-broker/internal/config"
	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/rabbitmq"
)

// DistributionQueue enqueues distributions for asynchronous delivery.
type DistributionQueue interface {
	Enqueue(ctx context.Context, distribution *models.Distribution) error
}

type rabbitQueue struct {
	conn *rabbitmq.Connection
	cfg  *config.QueueConfig
}

// NewDistributionQueue returns a RabbitMQ-backed DistributionQueue.
func NewDistributionQueue(conn *rabbitmq.Connection, cfg *config.QueueConfig) DistributionQueue {
	return &rabbitQueue{conn: conn, cfg: cfg}
}

// Enqueue publishes the distribution as base64-encoded JSON. Status and
// attempts travel with the message for observability only; the worker
// re-reads the stored record before acting.
func (q *rabbitQueue) Enqueue(ctx context.Context, distribution *models.Distribution) error {
	body, err := EncodeMessage(distribution)
	if err != nil {
		return err
	}

	if err := q.conn.Publish(ctx, q.cfg.DistributionExchange, q.cfg.DistributionRoutingKey, body); err != nil {
		return fmt.Errorf("failed to enqueue distribution %s: %w", distribution.ID, err)
	}
	return nil
}

// EncodeMessage serializes a distribution into the queue wire format.
func EncodeMessage(distribution *models.Distribution) ([]byte, error) {
	msg := models.DistributionMessage{
		ID:             distribution.ID,
		SubscriptionID: distribution.SubscriptionID,
		EventID:        distribution.EventID,
		Status:         distribution.Status,
		Attempts:       distribution.Attempts,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal distribution message: %w", err)
	}

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(encoded, raw)
	return encoded, nil
}
