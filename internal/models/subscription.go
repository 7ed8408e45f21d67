package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription binds a (publisher, event type) pair to a delivery
// endpoint.
type Subscription struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PublisherCode string    `gorm:"not null" json:"publisher_code"`
	EventType     string    `gorm:"not null" json:"event_type"`
	EndpointURL   string    `gorm:"not null" json:"endpoint_url"`
	CreatedAt     time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt     time.Time `gorm:"default:now()" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
