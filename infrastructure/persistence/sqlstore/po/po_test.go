package po

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"orderlifecycle/domain/order"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/schema"
)

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(42, order.CreateParams{
		ExternalReferenceID: "CC-0000000042",
		Channel:             order.ChannelCallCenter,
		PurchaseDate:        time.Date(2025, 5, 1, 10, 0, 0, 0, time.FixedZone("ART", -3*3600)),
		TotalValue:          decimal.RequireFromString("30.50"),
		Buyer:               order.Buyer{FirstName: "Ana", LastName: "Gomez", DocumentNumber: "30111222", Phone: "+5491155551234"},
		Products: []order.Product{
			{Sku: "A1", Name: "Cable", Price: decimal.RequireFromString("10.25"), Quantity: 2},
			{Sku: "B2", Name: "Adapter", Description: "USB-C", Price: decimal.RequireFromString("10"), Quantity: 1},
		},
	}, time.Date(2025, 5, 1, 14, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	return o
}

func TestOrderPORoundTrip(t *testing.T) {
	o := newOrder(t)
	orderPO, productPOs, eventPOs := FromOrderDomain(o)

	if orderPO.OrderID != 42 || orderPO.Channel != "CallCenter" || orderPO.Status != "Created" {
		t.Fatalf("order row = %+v", orderPO)
	}
	if orderPO.PurchaseDate.Location() != time.UTC {
		t.Error("purchase date must be stored in UTC")
	}
	if len(productPOs) != 2 || productPOs[0].Line != 1 || productPOs[1].Line != 2 {
		t.Fatalf("product rows = %+v", productPOs)
	}
	if len(eventPOs) != 1 || eventPOs[0].Seq != 1 || eventPOs[0].User != order.SystemUser {
		t.Fatalf("event rows = %+v", eventPOs)
	}

	rebuilt := orderPO.ToDomain(productPOs, eventPOs)
	if rebuilt.OrderID() != o.OrderID() || rebuilt.ExternalReferenceID() != o.ExternalReferenceID() {
		t.Errorf("identity lost: %+v", rebuilt.Snapshot())
	}
	if !rebuilt.TotalValue().Equal(o.TotalValue()) {
		t.Errorf("total = %s", rebuilt.TotalValue())
	}
	if !rebuilt.PurchaseDate().Equal(o.PurchaseDate()) {
		t.Errorf("purchase date = %v", rebuilt.PurchaseDate())
	}
	if got := rebuilt.Products(); got[1].Description != "USB-C" || got[0].Quantity != 2 {
		t.Errorf("products = %+v", got)
	}
	if rebuilt.CreatedEvent().ID != o.CreatedEvent().ID {
		t.Error("created event id lost")
	}
}

func TestFromDomainEvent(t *testing.T) {
	o := newOrder(t)
	events := o.PullEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d", len(events))
	}

	outbox, err := FromDomainEvent(events[0])
	if err != nil {
		t.Fatal(err)
	}
	if outbox.AggregateID != "42" || outbox.EventType != order.EventNameOrderCreated || outbox.Status != string(EventStatusPending) {
		t.Errorf("outbox row = %+v", outbox)
	}

	data, err := outbox.ToEventData()
	if err != nil {
		t.Fatal(err)
	}
	body, ok := data["data"].(map[string]any)
	if !ok {
		t.Fatalf("payload %s has no data object", outbox.Payload)
	}
	if body["externalReferenceId"] != "CC-0000000042" || body["totalValue"] != "30.5" {
		t.Errorf("data = %v", body)
	}
	if !json.Valid([]byte(outbox.Payload)) {
		t.Error("payload is not valid json")
	}
}

// Every accepted request must fit its columns; these are the request
// validation maxima.
func TestColumnSizesHoldValidatedLengths(t *testing.T) {
	tests := []struct {
		model any
		field string
		max   int
	}{
		{&OrderPO{}, "ExternalReferenceID", 255},
		{&OrderPO{}, "BuyerFirstName", 100},
		{&OrderPO{}, "BuyerLastName", 100},
		{&OrderPO{}, "BuyerDocumentNumber", 20},
		{&OrderPO{}, "BuyerPhone", 16},
		{&OrderProductPO{}, "Sku", 50},
		{&OrderProductPO{}, "Name", 200},
		{&OrderProductPO{}, "Description", 1000},
		{&OrderEventPO{}, "EventID", 50},
		{&OrderEventPO{}, "User", 100},
	}
	cache := &sync.Map{}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s, err := schema.Parse(tt.model, cache, schema.NamingStrategy{})
			if err != nil {
				t.Fatal(err)
			}
			f := s.LookUpField(tt.field)
			if f == nil {
				t.Fatalf("no field %s on %s", tt.field, s.Table)
			}
			if f.Size < tt.max {
				t.Errorf("%s.%s size = %d, want >= %d", s.Table, f.DBName, f.Size, tt.max)
			}
		})
	}
}
