package po

import (
	"encoding/json"
	"time"

	"orderlifecycle/domain/shared"

	"github.com/google/uuid"
)

// OutboxEventPO is a domain event waiting to be relayed, written in the same
// transaction as the state change it describes.
type OutboxEventPO struct {
	ID          string    `gorm:"primaryKey;size:64"`
	AggregateID string    `gorm:"size:64;index;not null"`
	EventType   string    `gorm:"size:100;index;not null"`
	Payload     string    `gorm:"type:text;not null"`
	Status      string    `gorm:"size:20;default:PENDING;not null;index"`
	RetryCount  int       `gorm:"default:0;not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (OutboxEventPO) TableName() string {
	return "outbox_events"
}

type EventStatus string

const (
	EventStatusPending    EventStatus = "PENDING"
	EventStatusProcessing EventStatus = "PROCESSING"
	EventStatusPublished  EventStatus = "PUBLISHED"
	EventStatusFailed     EventStatus = "FAILED"
)

func FromDomainEvent(event shared.DomainEvent) (*OutboxEventPO, error) {
	payload, err := serializeEvent(event)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &OutboxEventPO{
		ID:          uuid.NewString(),
		AggregateID: event.GetAggregateID(),
		EventType:   event.EventName(),
		Payload:     payload,
		Status:      string(EventStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// serializeEvent writes the envelope fields plus the event's own payload,
// if it has one.
func serializeEvent(event shared.DomainEvent) (string, error) {
	eventData := map[string]any{
		"event_name":   event.EventName(),
		"aggregate_id": event.GetAggregateID(),
		"occurred_on":  event.OccurredOn().UTC(),
	}
	if p, ok := event.(shared.PayloadProvider); ok {
		eventData["data"] = p.Payload()
	}

	data, err := json.Marshal(eventData)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *OutboxEventPO) ToEventData() (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(p.Payload), &data); err != nil {
		return nil, err
	}
	return data, nil
}
