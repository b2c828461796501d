package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// Requests
// ============================================================================

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	ExternalReferenceID string           `json:"externalReferenceId" validate:"notblank,max=255"`
	Channel             string           `json:"channel" validate:"required,channel"`
	PurchaseDate        time.Time        `json:"purchaseDate" validate:"required,utc"`
	TotalValue          decimal.Decimal  `json:"totalValue" validate:"gt=0"`
	Buyer               BuyerRequest     `json:"buyer" validate:"required"`
	Products            []ProductRequest `json:"products" validate:"required,min=1,dive"`
}

type BuyerRequest struct {
	FirstName      string `json:"firstName" validate:"notblank,max=100"`
	LastName       string `json:"lastName" validate:"notblank,max=100"`
	DocumentNumber string `json:"documentNumber" validate:"notblank,min=5,max=20"`
	Phone          string `json:"phone" validate:"required,phone"`
}

type ProductRequest struct {
	Sku         string          `json:"sku" validate:"notblank,max=50"`
	Name        string          `json:"name" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
}

// AddEventRequest is the body of POST /orders/:id/events.
type AddEventRequest struct {
	ID   string    `json:"id" validate:"notblank,max=50"`
	Type string    `json:"type" validate:"required,eventtype"`
	Date time.Time `json:"date" validate:"required,notfuture"`
	User string    `json:"user" validate:"max=100"`
}

// SearchOrdersRequest carries the optional filters of GET /orders.
// Absent fields impose no constraint.
type SearchOrdersRequest struct {
	OrderID        *int64     `form:"orderId" json:"orderId,omitempty"`
	DocumentNumber string     `form:"documentNumber" json:"documentNumber,omitempty"`
	Status         string     `form:"status" json:"status,omitempty"`
	CreatedOnFrom  *time.Time `form:"createdOnFrom" time_format:"2006-01-02T15:04:05Z07:00" json:"createdOnFrom,omitempty"`
	CreatedOnTo    *time.Time `form:"createdOnTo" time_format:"2006-01-02T15:04:05Z07:00" json:"createdOnTo,omitempty"`
}

// ============================================================================
// Responses
// ============================================================================

type CreateOrderResponse struct {
	OrderID   int64     `json:"orderId"`
	Status    string    `json:"status"`
	UpdatedOn time.Time `json:"updatedOn"`

	// Idempotent is set when the order already existed and nothing was written.
	Idempotent bool `json:"-"`
}

type AddEventResponse struct {
	OrderID        int64     `json:"orderId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	UpdatedOn      time.Time `json:"updatedOn"`

	Idempotent bool `json:"-"`
}

type GetOrderResponse struct {
	OrderID             int64             `json:"orderId"`
	ExternalReferenceID string            `json:"externalReferenceId"`
	Channel             string            `json:"channel"`
	ChannelTranslate    string            `json:"channelTranslate"`
	Status              string            `json:"status"`
	StatusTranslate     string            `json:"statusTranslate"`
	PurchaseDate        time.Time         `json:"purchaseDate"`
	TotalValue          decimal.Decimal   `json:"totalValue"`
	Buyer               BuyerResponse     `json:"buyer"`
	Products            []ProductResponse `json:"products"`
	UpdatedOn           time.Time         `json:"updatedOn"`
	LastEvent           EventResponse     `json:"lastEvent"`
	Events              []EventResponse   `json:"events"`
}

type BuyerResponse struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	DocumentNumber string `json:"documentNumber"`
	Phone          string `json:"phone"`
}

type ProductResponse struct {
	Sku         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type EventResponse struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Date time.Time `json:"date"`
	User string    `json:"user"`
}

// OrderSearchResult is one row of GET /orders.
type OrderSearchResult struct {
	OrderID        int64     `json:"orderId"`
	Status         string    `json:"status"`
	UpdatedOn      time.Time `json:"updatedOn"`
	Channel        string    `json:"channel"`
	DocumentNumber string    `json:"documentNumber"`
}
