package order

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventNameOrderCreated       = "order.created"
	EventNameOrderStatusChanged = "order.status_changed"
)

type OrderCreatedEvent struct {
	orderID             int64
	externalReferenceID string
	channel             Channel
	totalValue          decimal.Decimal
	occurredOn          time.Time
}

func NewOrderCreatedEvent(o *Order, occurredOn time.Time) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		orderID:             o.id,
		externalReferenceID: o.externalReferenceID,
		channel:             o.channel,
		totalValue:          o.totalValue,
		occurredOn:          occurredOn,
	}
}

func (e *OrderCreatedEvent) EventName() string      { return EventNameOrderCreated }
func (e *OrderCreatedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *OrderCreatedEvent) GetAggregateID() string { return strconv.FormatInt(e.orderID, 10) }
func (e *OrderCreatedEvent) OrderID() int64         { return e.orderID }

func (e *OrderCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"orderId":             e.orderID,
		"externalReferenceId": e.externalReferenceID,
		"channel":             string(e.channel),
		"totalValue":          e.totalValue.String(),
		"status":              string(StatusCreated),
	}
}

type OrderStatusChangedEvent struct {
	orderID        int64
	eventID        string
	previousStatus Status
	newStatus      Status
	eventDate      time.Time
	user           string
	occurredOn     time.Time
}

func NewOrderStatusChangedEvent(orderID int64, ev Event, previous Status, occurredOn time.Time) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		orderID:        orderID,
		eventID:        ev.ID,
		previousStatus: previous,
		newStatus:      ev.Type,
		eventDate:      ev.Date,
		user:           ev.User,
		occurredOn:     occurredOn,
	}
}

func (e *OrderStatusChangedEvent) EventName() string      { return EventNameOrderStatusChanged }
func (e *OrderStatusChangedEvent) OccurredOn() time.Time  { return e.occurredOn }
func (e *OrderStatusChangedEvent) GetAggregateID() string { return strconv.FormatInt(e.orderID, 10) }
func (e *OrderStatusChangedEvent) OrderID() int64         { return e.orderID }
func (e *OrderStatusChangedEvent) PreviousStatus() Status { return e.previousStatus }
func (e *OrderStatusChangedEvent) NewStatus() Status      { return e.newStatus }

func (e *OrderStatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"orderId":        e.orderID,
		"eventId":        e.eventID,
		"previousStatus": string(e.previousStatus),
		"newStatus":      string(e.newStatus),
		"eventDate":      e.eventDate,
		"user":           e.user,
	}
}
