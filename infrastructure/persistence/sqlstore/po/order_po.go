package po

import (
	"time"

	"orderlifecycle/domain/order"

	"github.com/shopspring/decimal"
)

// OrderPO is the orders row. Products and events live in their own tables
// and are loaded explicitly; no GORM associations are declared.
type OrderPO struct {
	OrderID             int64           `gorm:"primaryKey;autoIncrement:false"`
	ExternalReferenceID string          `gorm:"size:255;not null;uniqueIndex:idx_orders_natural_key,priority:1"`
	Channel             string          `gorm:"size:20;not null;uniqueIndex:idx_orders_natural_key,priority:2"`
	PurchaseDate        time.Time       `gorm:"not null;index"`
	TotalValue          decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	BuyerFirstName      string          `gorm:"size:100;not null"`
	BuyerLastName       string          `gorm:"size:100;not null"`
	BuyerDocumentNumber string          `gorm:"size:32;not null;index"`
	BuyerPhone          string          `gorm:"size:20;not null"`
	Status              string          `gorm:"size:20;not null;index"`
	UpdatedOn           time.Time       `gorm:"not null"`
	Version             int             `gorm:"not null;default:0"`
	CreatedAt           time.Time       `gorm:"autoCreateTime"`
}

func (OrderPO) TableName() string {
	return "orders"
}

// OrderProductPO is one product line; Line keeps the request order.
type OrderProductPO struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"not null;uniqueIndex:idx_order_products_line,priority:1"`
	Line        int             `gorm:"not null;uniqueIndex:idx_order_products_line,priority:2"`
	Sku         string          `gorm:"size:64;not null"`
	Name        string          `gorm:"size:255;not null"`
	Description string          `gorm:"size:1000"`
	Price       decimal.Decimal `gorm:"type:decimal(19,4);not null"`
	Quantity    int             `gorm:"not null"`
}

func (OrderProductPO) TableName() string {
	return "order_products"
}

// OrderEventPO is one history entry. (order_id, event_id) is unique, which
// makes a duplicated event id fail at insert time.
type OrderEventPO struct {
	ID      uint64    `gorm:"primaryKey;autoIncrement"`
	OrderID int64     `gorm:"not null;uniqueIndex:idx_order_events_event,priority:1;index:idx_order_events_seq,priority:1"`
	EventID string    `gorm:"size:64;not null;uniqueIndex:idx_order_events_event,priority:2"`
	Seq     int       `gorm:"not null;index:idx_order_events_seq,priority:2"`
	Type    string    `gorm:"size:20;not null"`
	Date    time.Time `gorm:"not null"`
	User    string    `gorm:"column:user_name;size:100;not null"`
}

func (OrderEventPO) TableName() string {
	return "order_events"
}

// FromOrderDomain splits an aggregate into its rows.
func FromOrderDomain(o *order.Order) (*OrderPO, []OrderProductPO, []OrderEventPO) {
	buyer := o.Buyer()
	orderPO := &OrderPO{
		OrderID:             o.OrderID(),
		ExternalReferenceID: o.ExternalReferenceID(),
		Channel:             string(o.Channel()),
		PurchaseDate:        o.PurchaseDate().UTC(),
		TotalValue:          o.TotalValue(),
		BuyerFirstName:      buyer.FirstName,
		BuyerLastName:       buyer.LastName,
		BuyerDocumentNumber: buyer.DocumentNumber,
		BuyerPhone:          buyer.Phone,
		Status:              string(o.Status()),
		UpdatedOn:           o.UpdatedOn().UTC(),
		Version:             o.Version(),
	}

	products := o.Products()
	productPOs := make([]OrderProductPO, len(products))
	for i, p := range products {
		productPOs[i] = OrderProductPO{
			OrderID:     o.OrderID(),
			Line:        i + 1,
			Sku:         p.Sku,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
		}
	}

	events := o.Events()
	eventPOs := make([]OrderEventPO, len(events))
	for i, e := range events {
		eventPOs[i] = FromEventDomain(o.OrderID(), i+1, e)
	}

	return orderPO, productPOs, eventPOs
}

func FromEventDomain(orderID int64, seq int, e order.Event) OrderEventPO {
	return OrderEventPO{
		OrderID: orderID,
		EventID: e.ID,
		Seq:     seq,
		Type:    string(e.Type),
		Date:    e.Date.UTC(),
		User:    e.User,
	}
}

// ToDomain rebuilds the aggregate. products and events must already be
// sorted by Line and Seq.
func (p *OrderPO) ToDomain(productPOs []OrderProductPO, eventPOs []OrderEventPO) *order.Order {
	products := make([]order.Product, len(productPOs))
	for i, pp := range productPOs {
		products[i] = order.Product{
			Sku:         pp.Sku,
			Name:        pp.Name,
			Description: pp.Description,
			Price:       pp.Price,
			Quantity:    pp.Quantity,
		}
	}

	events := make([]order.Event, len(eventPOs))
	for i, ep := range eventPOs {
		events[i] = order.Event{
			ID:   ep.EventID,
			Type: order.Status(ep.Type),
			Date: ep.Date.UTC(),
			User: ep.User,
		}
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:                  p.OrderID,
		ExternalReferenceID: p.ExternalReferenceID,
		Channel:             order.Channel(p.Channel),
		PurchaseDate:        p.PurchaseDate.UTC(),
		TotalValue:          p.TotalValue,
		Buyer: order.Buyer{
			FirstName:      p.BuyerFirstName,
			LastName:       p.BuyerLastName,
			DocumentNumber: p.BuyerDocumentNumber,
			Phone:          p.BuyerPhone,
		},
		Products:  products,
		Status:    order.Status(p.Status),
		UpdatedOn: p.UpdatedOn.UTC(),
		Events:    events,
		Version:   p.Version,
	})
}
