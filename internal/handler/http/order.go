package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ShopyKart/internal/domain"
	"github.com/utafrali/ShopyKart/internal/repository"
	"github.com/utafrali/ShopyKart/internal/service"
	"github.com/utafrali/ShopyKart/pkg/httputil"
	"github.com/utafrali/ShopyKart/pkg/middleware"
	"github.com/utafrali/ShopyKart/pkg/pagination"
)

// OrderHandler handles order history and administrative order updates.
type OrderHandler struct {
	orders *service.OrderService
	logger *slog.Logger
}

// NewOrderHandler creates an order handler.
func NewOrderHandler(orders *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

// UpdateOrderRequest is the body of PUT /api/v1/orders/{id}.
type UpdateOrderRequest struct {
	OrderStatus   *string `json:"order_status" validate:"omitempty,notblank"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,notblank"`
}

// UpdateStatusRequest is the body of PUT /api/v1/orders/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,notblank"`
}

// ListMine handles GET /api/v1/orders/mine.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)

	orders, total, err := h.orders.ListOwnerOrders(r.Context(), middleware.AccountIDFromContext(r.Context()), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(orders, total, page))
}

// GetOrder handles GET /api/v1/orders/{id}. Non-admin callers only see their
// own orders.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	ctx := r.Context()
	admin := middleware.RoleFromContext(ctx) == string(domain.RoleAdmin)
	order, err := h.orders.GetOrderFor(ctx, id, middleware.AccountIDFromContext(ctx), admin)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromRequest(r)
	q := r.URL.Query()
	filter := repository.OrderFilter{
		OwnerID: q.Get("owner_id"),
		Page:    page,
	}
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		filter.Status = status
	}

	orders, total, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pagination.NewResult(orders, total, page))
}

// UpdateOrder handles PUT /api/v1/orders/{id}.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var input service.UpdateOrderInput
	if req.OrderStatus != nil {
		status, err := domain.ParseOrderStatus(*req.OrderStatus)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		input.Status = &status
	}
	if req.PaymentStatus != nil {
		status, err := domain.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		input.PaymentStatus = &status
	}

	order, err := h.orders.UpdateOrder(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/v1/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := httputil.DecodeJSON(w, r, maxBodyBytes, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	status, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	order, err := h.orders.AdvanceFulfillment(r.Context(), id, status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/{id}.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
