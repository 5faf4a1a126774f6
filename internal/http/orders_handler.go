package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
	"github.com/stefanjelkic00/TechShop/internal/service"
)

type OrdersHandler struct {
	store     r.Store
	lifecycle *service.LifecycleService
	timeout   time.Duration
}

func NewOrdersHandler(store r.Store, lifecycle *service.LifecycleService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		store:     store,
		lifecycle: lifecycle,
		timeout:   timeout,
	}
}

type OrderItemDTO struct {
	ProductID int64  `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	Price     string `json:"price"`
}

type OrderResponseDTO struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	TotalPrice string         `json:"total_price"`
	Items      []OrderItemDTO `json:"items"`
	CreatedAt  string         `json:"created_at"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	dtoItems := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		dtoItems = append(dtoItems, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
		})
	}

	return OrderResponseDTO{
		ID:         o.ID.String(),
		Status:     o.Status.String(),
		TotalPrice: o.TotalPrice.StringFixed(2),
		Items:      dtoItems,
		CreatedAt:  o.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := contextWithTimeout(req, h.timeout)
	defer cancel()

	userID := getUserIDFromContext(req.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.store.ListOrdersByUserID(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := contextWithTimeout(req, h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, req)
	if !ok {
		return
	}

	order, err := h.store.GetOrderByID(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

type OrderUpdateDTO struct {
	Status     string `json:"status"`
	TotalPrice string `json:"total_price"`
}

// PATCH /api/v1/orders/{order_id}
func (h *OrdersHandler) UpdateOrder(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := contextWithTimeout(req, h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, req)
	if !ok {
		return
	}

	var body OrderUpdateDTO
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "could not parse request body")
		return
	}
	if !domain.ValidOrderStatus(body.Status) {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}
	total, err := decimal.NewFromString(body.TotalPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_total", "total_price must be a decimal string")
		return
	}

	order, err := h.lifecycle.UpdateStatus(ctx, orderID, domain.OrderStatus(body.Status), total)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// DELETE /api/v1/orders/{order_id}
func (h *OrdersHandler) DeleteOrder(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := contextWithTimeout(req, h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, req)
	if !ok {
		return
	}

	if err := h.lifecycle.Delete(ctx, orderID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseOrderID(w http.ResponseWriter, req *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(req, "order_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return uuid.Nil, false
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a uuid")
		return uuid.Nil, false
	}
	return orderID, true
}
