package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stefanjelkic00/TechShop/internal/domain"
	r "github.com/stefanjelkic00/TechShop/internal/repository"
	"github.com/stefanjelkic00/TechShop/internal/service"
)

type CheckoutHandler struct {
	fulfillment *service.FulfillmentService
	timeout     time.Duration
}

func NewCheckoutHandler(fulfillment *service.FulfillmentService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		fulfillment: fulfillment,
		timeout:     timeout,
	}
}

type CheckoutRequestDTO struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type CheckoutResponseDTO struct {
	Order      OrderResponseDTO `json:"order"`
	Tier       string           `json:"tier"`
	Credential string           `json:"credential,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := contextWithTimeout(req, h.timeout)
	defer cancel()

	userID := getUserIDFromContext(req.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var body CheckoutRequestDTO
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "could not parse request body")
		return
	}

	result, err := h.fulfillment.Checkout(ctx, userID, domain.Address{
		Street:     body.Street,
		City:       body.City,
		PostalCode: body.PostalCode,
		Country:    body.Country,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CheckoutResponseDTO{
		Order:      convertOrder(result.Order),
		Tier:       result.Tier.String(),
		Credential: result.Credential,
	})
}

func handleServiceError(w http.ResponseWriter, err error) {
	var stockErr *r.InsufficientStockError
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrInvalidAddress):
		respondError(w, http.StatusBadRequest, "invalid_address", "shipping address is incomplete")
	case errors.As(err, &stockErr):
		respondError(w, http.StatusConflict, "insufficient_stock", stockErr.Error())
	case errors.Is(err, r.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "customer_not_found", "customer not found")
	case errors.Is(err, r.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", "cart not found")
	case errors.Is(err, r.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, service.IllegalTransitionError):
		respondError(w, http.StatusConflict, "illegal_transition", "order status transition not allowed")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
