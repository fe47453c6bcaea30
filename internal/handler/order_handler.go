package handler

import (
	"encoding/json"
	"net/http"

	"kart-checkout/internal/model"
	"kart-checkout/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.CheckoutService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid order request body")
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "request body is not a valid order", nil)
		return
	}

	order, err := h.service.Checkout(r.Context(), &req)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "invalid order ID format", nil)
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err, h.logger)
		return
	}

	if order == nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeOrderNotFound, "order not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
