/*
Package order Order subdomain

The Order aggregate owns its buyer, its product lines and an append-only list
of lifecycle events. The status is a maintained projection of the last
applied event, never recomputed from the list.

Rules enforced here:
 1. An order is born with exactly one synthetic Created event.
 2. totalValue equals the sum of price x quantity when the order is created.
 3. Status only moves through the transition table (see transitions.go).
 4. Event ids are unique within one order.
*/
package order

import (
	"strconv"
	"time"

	"orderlifecycle/domain/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SystemUser is recorded on events that carry no attribution.
const SystemUser = "System"

// Order aggregate root
type Order struct {
	id                  int64
	externalReferenceID string
	channel             Channel
	purchaseDate        time.Time
	totalValue          decimal.Decimal
	buyer               Buyer
	products            []Product
	status              Status
	updatedOn           time.Time
	events              []Event
	version             int

	pending []shared.DomainEvent
}

// Buyer value object, immutable once the order exists.
type Buyer struct {
	FirstName      string
	LastName       string
	DocumentNumber string
	Phone          string
}

// Product is one order line.
type Product struct {
	Sku         string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
}

// Subtotal returns price x quantity.
func (p Product) Subtotal() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// Event is one entry of the order history.
type Event struct {
	ID   string
	Type Status
	Date time.Time
	User string
}

// CreateParams carries the caller supplied part of a new order.
type CreateParams struct {
	ExternalReferenceID string
	Channel             Channel
	PurchaseDate        time.Time
	TotalValue          decimal.Decimal
	Buyer               Buyer
	Products            []Product
}

// ============================================================================
// Factory
// ============================================================================

// ProductsTotal sums price x quantity over products.
func ProductsTotal(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Subtotal())
	}
	return total
}

// CheckTotal verifies the declared total against the product lines.
func CheckTotal(declared decimal.Decimal, products []Product) error {
	if len(products) == 0 {
		return NewEmptyProductsError()
	}
	computed := ProductsTotal(products)
	if !computed.Equal(declared) {
		return NewTotalMismatchError(declared, computed)
	}
	return nil
}

// NewOrder builds an order with its synthetic Created event dated now.
// id comes from the sequence allocator.
func NewOrder(id int64, params CreateParams, now time.Time) (*Order, error) {
	if err := CheckTotal(params.TotalValue, params.Products); err != nil {
		return nil, err
	}

	now = now.UTC()
	created := Event{
		ID:   uuid.NewString(),
		Type: StatusCreated,
		Date: now,
		User: SystemUser,
	}

	products := make([]Product, len(params.Products))
	copy(products, params.Products)

	o := &Order{
		id:                  id,
		externalReferenceID: params.ExternalReferenceID,
		channel:             params.Channel,
		purchaseDate:        params.PurchaseDate.UTC(),
		totalValue:          params.TotalValue,
		buyer:               params.Buyer,
		products:            products,
		status:              StatusCreated,
		updatedOn:           now,
		events:              []Event{created},
	}
	o.pending = append(o.pending, NewOrderCreatedEvent(o, now))

	return o, nil
}

// ============================================================================
// Reconstruction (repository use only)
// ============================================================================

// ReconstructionDTO rebuilds an Order from storage without running the
// creation rules again.
type ReconstructionDTO struct {
	ID                  int64
	ExternalReferenceID string
	Channel             Channel
	PurchaseDate        time.Time
	TotalValue          decimal.Decimal
	Buyer               Buyer
	Products            []Product
	Status              Status
	UpdatedOn           time.Time
	Events              []Event
	Version             int
}

func RebuildFromDTO(dto ReconstructionDTO) *Order {
	products := make([]Product, len(dto.Products))
	copy(products, dto.Products)
	events := make([]Event, len(dto.Events))
	copy(events, dto.Events)

	return &Order{
		id:                  dto.ID,
		externalReferenceID: dto.ExternalReferenceID,
		channel:             dto.Channel,
		purchaseDate:        dto.PurchaseDate,
		totalValue:          dto.TotalValue,
		buyer:               dto.Buyer,
		products:            products,
		status:              dto.Status,
		updatedOn:           dto.UpdatedOn,
		events:              events,
		version:             dto.Version,
	}
}

// Snapshot is the inverse of RebuildFromDTO.
func (o *Order) Snapshot() ReconstructionDTO {
	return ReconstructionDTO{
		ID:                  o.id,
		ExternalReferenceID: o.externalReferenceID,
		Channel:             o.channel,
		PurchaseDate:        o.purchaseDate,
		TotalValue:          o.totalValue,
		Buyer:               o.buyer,
		Products:            o.Products(),
		Status:              o.status,
		UpdatedOn:           o.updatedOn,
		Events:              o.Events(),
		Version:             o.version,
	}
}

// ============================================================================
// Behaviour
// ============================================================================

// FindEvent looks up an already applied event by its idempotency token.
func (o *Order) FindEvent(eventID string) (Event, bool) {
	for _, e := range o.events {
		if e.ID == eventID {
			return e, true
		}
	}
	return Event{}, false
}

// Advance appends ev and moves the status to ev.Type.
// It refuses transitions outside the table and duplicate event ids, leaving
// the order untouched in both cases.
func (o *Order) Advance(ev Event, now time.Time) error {
	if _, dup := o.FindEvent(ev.ID); dup {
		return NewDuplicateEventError(o.id, ev.ID)
	}
	if !IsAllowed(o.status, ev.Type) {
		return NewInvalidTransitionError(o.id, o.status, ev.Type)
	}
	if ev.User == "" {
		ev.User = SystemUser
	}

	previous := o.status
	o.events = append(o.events, ev)
	o.status = ev.Type
	o.updatedOn = now.UTC()
	o.pending = append(o.pending, NewOrderStatusChangedEvent(o.id, ev, previous, o.updatedOn))
	return nil
}

// MarkPersisted bumps the version after a successful write.
func (o *Order) MarkPersisted() {
	o.version++
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string                  { return strconv.FormatInt(o.id, 10) }
func (o *Order) OrderID() int64              { return o.id }
func (o *Order) ExternalReferenceID() string { return o.externalReferenceID }
func (o *Order) Channel() Channel            { return o.channel }
func (o *Order) PurchaseDate() time.Time     { return o.purchaseDate }
func (o *Order) TotalValue() decimal.Decimal { return o.totalValue }
func (o *Order) Buyer() Buyer                { return o.buyer }
func (o *Order) Status() Status              { return o.status }
func (o *Order) UpdatedOn() time.Time        { return o.updatedOn }
func (o *Order) Version() int                { return o.version }

func (o *Order) Products() []Product {
	out := make([]Product, len(o.products))
	copy(out, o.products)
	return out
}

func (o *Order) Events() []Event {
	out := make([]Event, len(o.events))
	copy(out, o.events)
	return out
}

// CreatedEvent returns the synthetic first event.
func (o *Order) CreatedEvent() Event {
	if len(o.events) == 0 {
		return Event{Type: StatusCreated, Date: o.updatedOn, User: SystemUser}
	}
	return o.events[0]
}

// LastEvent returns the most recently appended event.
func (o *Order) LastEvent() Event {
	if len(o.events) == 0 {
		return Event{}
	}
	return o.events[len(o.events)-1]
}

// PullEvents hands the recorded domain events to the unit of work.
func (o *Order) PullEvents() []shared.DomainEvent {
	events := o.pending
	o.pending = nil
	return events
}

var _ shared.AggregateRoot = (*Order)(nil)
