package models

import (
	"strings"
	"time"
)

// Publisher is a registered event source, identified by its code.
type Publisher struct {
	Code        string            `gorm:"primary_key" json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Events      []EventDefinition `gorm:"foreignKey:PublisherCode;references:Code" json:"events"`
	CreatedAt   time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"default:now()" json:"updated_at"`
}

func (Publisher) TableName() string {
	return "publishers"
}

// EventDefinition is a named, schema-validated event type belonging to
// a publisher. Schema is the JSON Schema document with any shared
// definitions already merged in.
type EventDefinition struct {
	PublisherCode string `gorm:"primary_key" json:"publisher_code"`
	Name          string `gorm:"primary_key" json:"name"`
	Description   string `json:"description"`
	Schema        string `gorm:"type:jsonb;not null" json:"schema"`
}

func (EventDefinition) TableName() string {
	return "event_definitions"
}

// FindEvent looks up an event definition by name. Names are unique per
// publisher case-insensitively, so the match ignores case.
func (p *Publisher) FindEvent(name string) *EventDefinition {
	for i := range p.Events {
		if strings.EqualFold(p.Events[i].Name, name) {
			return &p.Events[i]
		}
	}
	return nil
}
