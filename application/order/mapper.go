package order

import (
	"strings"

	"orderlifecycle/domain/order"
)

func toCreateParams(req *CreateOrderRequest) order.CreateParams {
	// validated beforehand, so the lookup cannot miss
	channel, _ := order.ParseChannel(req.Channel)

	products := make([]order.Product, len(req.Products))
	for i, p := range req.Products {
		products[i] = order.Product{
			Sku:         strings.TrimSpace(p.Sku),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
		}
	}

	return order.CreateParams{
		ExternalReferenceID: strings.TrimSpace(req.ExternalReferenceID),
		Channel:             channel,
		PurchaseDate:        req.PurchaseDate.UTC(),
		TotalValue:          req.TotalValue,
		Buyer: order.Buyer{
			FirstName:      req.Buyer.FirstName,
			LastName:       req.Buyer.LastName,
			DocumentNumber: strings.TrimSpace(req.Buyer.DocumentNumber),
			Phone:          req.Buyer.Phone,
		},
		Products: products,
	}
}

func toDomainEvent(req *AddEventRequest) order.Event {
	eventType, _ := order.ParseStatus(req.Type)
	return order.Event{
		ID:   req.ID,
		Type: eventType,
		Date: req.Date.UTC(),
		User: strings.TrimSpace(req.User),
	}
}

func toFilter(req SearchOrdersRequest) (order.Filter, bool) {
	filter := order.Filter{
		OrderID:        req.OrderID,
		DocumentNumber: strings.TrimSpace(req.DocumentNumber),
		CreatedOnFrom:  req.CreatedOnFrom,
		CreatedOnTo:    req.CreatedOnTo,
	}
	if strings.TrimSpace(req.Status) != "" {
		status, ok := order.ParseStatus(req.Status)
		if !ok {
			return order.Filter{}, false
		}
		filter.Status = &status
	}
	return filter, true
}

// toCreateResponse reports the creation result, which is the same for the
// original call and any replay of it.
func toCreateResponse(o *order.Order, idempotent bool) *CreateOrderResponse {
	created := o.CreatedEvent()
	return &CreateOrderResponse{
		OrderID:    o.OrderID(),
		Status:     string(order.StatusCreated),
		UpdatedOn:  created.Date,
		Idempotent: idempotent,
	}
}

func toEventResponse(e order.Event) EventResponse {
	return EventResponse{
		ID:   e.ID,
		Type: string(e.Type),
		Date: e.Date,
		User: e.User,
	}
}

func toGetOrderResponse(o *order.Order, tr *Translator) *GetOrderResponse {
	products := make([]ProductResponse, 0, len(o.Products()))
	for _, p := range o.Products() {
		products = append(products, ProductResponse{
			Sku:         p.Sku,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
		})
	}

	events := o.Events()
	eventResponses := make([]EventResponse, len(events))
	for i, e := range events {
		eventResponses[i] = toEventResponse(e)
	}

	buyer := o.Buyer()
	return &GetOrderResponse{
		OrderID:             o.OrderID(),
		ExternalReferenceID: o.ExternalReferenceID(),
		Channel:             string(o.Channel()),
		ChannelTranslate:    tr.Channel(o.Channel()),
		Status:              string(o.Status()),
		StatusTranslate:     tr.Status(o.Status()),
		PurchaseDate:        o.PurchaseDate(),
		TotalValue:          o.TotalValue(),
		Buyer: BuyerResponse{
			FirstName:      buyer.FirstName,
			LastName:       buyer.LastName,
			DocumentNumber: buyer.DocumentNumber,
			Phone:          buyer.Phone,
		},
		Products:  products,
		UpdatedOn: o.UpdatedOn(),
		LastEvent: toEventResponse(o.LastEvent()),
		Events:    eventResponses,
	}
}

func toSearchResult(o *order.Order) OrderSearchResult {
	return OrderSearchResult{
		OrderID:        o.OrderID(),
		Status:         string(o.Status()),
		UpdatedOn:      o.UpdatedOn(),
		Channel:        string(o.Channel()),
		DocumentNumber: o.Buyer().DocumentNumber,
	}
}
