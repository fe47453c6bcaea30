package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"kart-checkout/internal/model"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies accepted by the API.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a model.ErrorResponse tagged with the request id.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: middleware.GetReqID(r.Context()),
		Details:       details,
	})
}

// respondError maps a service error onto an HTTP status and error body.
// Client errors are logged at warn, everything else at error.
func respondError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	var (
		paymentErr     *model.PaymentError
		fieldErr       *model.FieldError
		unavailableErr *model.UnavailableError
		regionErr      *model.UnknownRegionError
		reconcileErr   *model.ReconcileError
	)

	status, code, message := http.StatusInternalServerError, model.ErrCodeInternalError, "internal server error"
	var details any

	switch {
	case errors.As(err, &reconcileErr):
		status, code, message = http.StatusInternalServerError, model.ErrCodeInventoryNotReconciled, model.ErrInventoryNotReconciled.Message
		details = map[string]string{"orderId": reconcileErr.OrderID.String()}
	case errors.As(err, &paymentErr):
		status, code, message = http.StatusBadRequest, model.ErrCodeInvalidPayment, model.ErrInvalidPayment.Message
		details = paymentErr.Violations
	case errors.As(err, &fieldErr):
		status, code, message = http.StatusBadRequest, model.ErrCodeMissingField, fieldErr.Error()
		details = model.FieldViolation{Field: fieldErr.Field, Reason: fieldErr.Reason}
	case errors.As(err, &unavailableErr):
		kind := unavailableErr.Kind()
		status, code, message = http.StatusConflict, kind.Code, kind.Message
		details = unavailableErr
	case errors.As(err, &regionErr):
		status, code, message = http.StatusBadRequest, model.ErrCodeUnknownRegion, regionErr.Error()
		details = map[string]string{"region": regionErr.Region}
	case errors.Is(err, model.ErrEmptyOrder):
		status, code, message = http.StatusBadRequest, model.ErrCodeEmptyOrder, model.ErrEmptyOrder.Message
	case errors.Is(err, model.ErrInvalidQuantity):
		status, code, message = http.StatusBadRequest, model.ErrCodeInvalidQuantity, model.ErrInvalidQuantity.Message
	case errors.Is(err, model.ErrProductNotFound):
		status, code, message = http.StatusNotFound, model.ErrCodeProductNotFound, model.ErrProductNotFound.Message
	case errors.Is(err, model.ErrServiceUnavailable):
		status, code, message = http.StatusServiceUnavailable, model.ErrCodeServiceUnavailable, model.ErrServiceUnavailable.Message
	}

	event := logger.Error()
	if status < http.StatusInternalServerError {
		event = logger.Warn()
	}
	event.Err(err).
		Int("status", status).
		Str("code", code).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("request failed")

	writeError(w, r, status, code, message, details)
}
