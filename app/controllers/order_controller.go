package controllers

import (
	"errors"
	"net/http"

	"github.com/abhi5hek001/Buykart/app/models"
	"github.com/abhi5hek001/Buykart/app/services"
	"github.com/abhi5hek001/Buykart/pkg/bind"
	"github.com/abhi5hek001/Buykart/pkg/logger"
	"github.com/abhi5hek001/Buykart/pkg/middleware"
	"github.com/abhi5hek001/Buykart/pkg/response"
	"github.com/go-chi/chi/v5"
)

// placeOrderRequest is the checkout payload. The user comes from the auth
// token, never from the body.
type placeOrderRequest struct {
	ShippingAddress string                `json:"shipping_address" validate:"required,min=10"`
	Items           []placeOrderLineInput `json:"items" validate:"required"`
}

type placeOrderLineInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,integer,gte=1"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,in=pending,confirmed,shipped,delivered,cancelled"`
}

// OrderController exposes the order endpoints.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// Place handles POST /api/orders.
func (c *OrderController) Place(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	lines := make([]services.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, services.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := c.orders.PlaceOrder(r.Context(), services.PlaceOrderInput{
		UserID:          middleware.UserID(r.Context()),
		ShippingAddress: req.ShippingAddress,
		Lines:           lines,
	})
	if err != nil {
		c.writeOrderError(w, r, err)
		return
	}

	response.Created(w, order)
}

// Get handles GET /api/orders/{id}.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	order, err := c.orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		c.writeOrderError(w, r, err)
		return
	}

	// Users may only read their own orders; admins read everything.
	if order.UserID != middleware.UserID(r.Context()) && !middleware.IsAdmin(r.Context()) {
		response.NotFound(w, "order not found")
		return
	}

	response.Success(w, order)
}

// Mine handles GET /api/orders — the caller's own order history.
func (c *OrderController) Mine(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.ListByUser(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		c.writeOrderError(w, r, err)
		return
	}
	response.Success(w, orders)
}

// All handles GET /api/orders/all. Admin only.
func (c *OrderController) All(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.ListAll(r.Context())
	if err != nil {
		c.writeOrderError(w, r, err)
		return
	}
	response.Success(w, orders)
}

// UpdateStatus handles PATCH /api/orders/{id}/status. Admin only.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if errs, err := bind.JSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	order, err := c.orders.UpdateStatus(r.Context(),
		chi.URLParam(r, "id"), models.OrderStatus(req.Status))
	if err != nil {
		c.writeOrderError(w, r, err)
		return
	}

	response.Success(w, order)
}

// writeOrderError maps the typed service errors onto HTTP statuses.
func (c *OrderController) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *services.ValidationError
		nf *services.NotFoundError
		is *services.InsufficientStockError
		to *services.TimeoutError
	)

	switch {
	case errors.As(err, &ve):
		response.ValidationError(w, ve.Fields)
	case errors.As(err, &nf):
		response.NotFound(w, nf.Error())
	case errors.As(err, &is):
		response.Error(w, http.StatusBadRequest, is.Error())
	case errors.As(err, &to):
		response.Error(w, http.StatusRequestTimeout, to.Error())
	default:
		logger.WithCtx(r.Context()).Error("order request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
