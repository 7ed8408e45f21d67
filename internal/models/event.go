package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is one immutable occurrence of a publisher's event. The payload
// is stored exactly as received; it is never mutated after creation.
type Event struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	PublisherCode string    `gorm:"not null" json:"publisher_code"`
	EventType     string    `gorm:"not null" json:"event_type"`
	Payload       string    `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}
