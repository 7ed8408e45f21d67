package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DistributionStatus is the delivery state of a distribution.
type DistributionStatus string

const (
	StatusPending      DistributionStatus = "pending"
	StatusSent         DistributionStatus = "sent"
	StatusPendingRetry DistributionStatus = "pending_retry"
	StatusFailed       DistributionStatus = "failed"
)

// MaxAttempts is the delivery attempt ceiling. A failed attempt at this
// count moves the distribution to failed; below it, to pending_retry.
const MaxAttempts = 5

// ParseDistributionStatus parses a string into a DistributionStatus.
// Returns an error if the status is unknown.
func ParseDistributionStatus(name string) (DistributionStatus, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	validStatuses := []DistributionStatus{
		StatusPending,
		StatusSent,
		StatusPendingRetry,
		StatusFailed,
	}

	for _, status := range validStatuses {
		if string(status) == name {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown distribution status: %s", name)
}

// Distribution is the per-(event, subscription) unit of delivery work
// and its retry state. Compound identity is (subscription_id, id).
// Version guards updates: every persisted mutation increments it, and
// writers must supply the version they last read.
type Distribution struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	SubscriptionID uuid.UUID          `gorm:"type:uuid;primary_key" json:"subscription_id"`
	EventID        uuid.UUID          `gorm:"type:uuid;not null" json:"event_id"`
	Status         DistributionStatus `gorm:"not null;default:'pending'" json:"status"`
	Attempts       int                `gorm:"not null;default:0" json:"attempts"`
	Version        int64              `gorm:"not null;default:0" json:"version"`
	LastError      *string            `json:"last_error"`
	CreatedAt      time.Time          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Distribution) TableName() string {
	return "distributions"
}

// DistributionMessage is the message carried on the distribution queue.
// Only ID and SubscriptionID are authoritative; the worker re-reads the
// stored distribution before acting on status or attempts.
type DistributionMessage struct {
	ID             uuid.UUID          `json:"id"`
	SubscriptionID uuid.UUID          `json:"subscription_id"`
	EventID        uuid.UUID          `json:"event_id"`
	Status         DistributionStatus `json:"status"`
	Attempts       int                `json:"attempts"`
}
