/*
Package order exposes the Order Lifecycle Engine over HTTP.

Decoding failures are answered directly with 400 through
response.HandleError; everything the engine returns goes through
response.HandleAppError, which maps the domain taxonomy to a status code.
*/
package order

import (
	"context"
	"net/http"
	"strconv"

	"orderlifecycle/api/response"
	orderapp "orderlifecycle/application/order"

	"github.com/gin-gonic/gin"
)

// Engine is the part of the application service the controller drives.
type Engine interface {
	CreateOrder(ctx context.Context, req *orderapp.CreateOrderRequest) (*orderapp.CreateOrderResponse, error)
	ApplyEvent(ctx context.Context, orderID int64, req *orderapp.AddEventRequest) (*orderapp.AddEventResponse, error)
	GetOrder(ctx context.Context, orderID int64) (*orderapp.GetOrderResponse, error)
	SearchOrders(ctx context.Context, req orderapp.SearchOrdersRequest) ([]orderapp.OrderSearchResult, error)
}

type Controller struct {
	engine Engine
}

func NewController(engine Engine) *Controller {
	return &Controller{engine: engine}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	orderGroup := router.Group("/orders")
	{
		orderGroup.POST("", c.CreateOrder)
		orderGroup.GET("", c.SearchOrders)
		orderGroup.GET("/:id", c.GetOrder)
		orderGroup.POST("/:id/events", c.AddEvent)
	}
}

// CreateOrder POST /api/v1/orders
// 201 for a new order, 200 when the natural key was already stored.
func (c *Controller) CreateOrder(ctx *gin.Context) {
	var req orderapp.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := c.engine.CreateOrder(ctx.Request.Context(), &req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	if resp.Idempotent {
		response.HandleSuccess(ctx, resp, "order already exists")
		return
	}
	response.HandleCreated(ctx, resp, "order created successfully")
}

// AddEvent POST /api/v1/orders/:id/events
func (c *Controller) AddEvent(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	var req orderapp.AddEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := c.engine.ApplyEvent(ctx.Request.Context(), orderID, &req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	message := "event applied successfully"
	if resp.Idempotent {
		message = "event already applied"
	}
	response.HandleSuccess(ctx, resp, message)
}

// GetOrder GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	orderID, ok := parseOrderID(ctx)
	if !ok {
		return
	}

	resp, err := c.engine.GetOrder(ctx.Request.Context(), orderID)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, resp, "order retrieved successfully")
}

// SearchOrders GET /api/v1/orders?orderId=&documentNumber=&status=&createdOnFrom=&createdOnTo=
func (c *Controller) SearchOrders(ctx *gin.Context) {
	var req orderapp.SearchOrdersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.HandleError(ctx, err, "invalid search parameters", http.StatusBadRequest)
		return
	}

	results, err := c.engine.SearchOrders(ctx.Request.Context(), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, results, "orders retrieved successfully")
}

func parseOrderID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.HandleError(ctx, err, "order id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
