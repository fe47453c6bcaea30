package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
	Details       any    `json:"details,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeMissingField           = "MISSING_FIELD"
	ErrCodeInvalidParameter       = "INVALID_PARAMETER"
	ErrCodeInvalidPayment         = "INVALID_PAYMENT"
	ErrCodeEmptyOrder             = "EMPTY_ORDER"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeInactiveProducts       = "INACTIVE_PRODUCTS"
	ErrCodeInsufficientStock      = "INSUFFICIENT_STOCK"
	ErrCodeMultipleUnavailable    = "MULTIPLE_UNAVAILABLE"
	ErrCodeUnknownRegion          = "UNKNOWN_REGION"
	ErrCodeProductNotFound        = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeInventoryNotReconciled = "INVENTORY_NOT_RECONCILED"
	ErrCodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrMissingField           = NewDomainError(ErrCodeMissingField, "A required field is missing")
	ErrInvalidPayment         = NewDomainError(ErrCodeInvalidPayment, "Payment instrument is invalid")
	ErrEmptyOrder             = NewDomainError(ErrCodeEmptyOrder, "Order must contain at least one line item")
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInactiveProducts       = NewDomainError(ErrCodeInactiveProducts, "One or more products are not available for sale")
	ErrInsufficientStock      = NewDomainError(ErrCodeInsufficientStock, "One or more products do not have enough stock")
	ErrMultipleUnavailable    = NewDomainError(ErrCodeMultipleUnavailable, "Some products are inactive and some do not have enough stock")
	ErrUnknownRegion          = NewDomainError(ErrCodeUnknownRegion, "Destination region is not recognised")
	ErrProductNotFound        = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInventoryNotReconciled = NewDomainError(ErrCodeInventoryNotReconciled, "Order was recorded but inventory was not reconciled")
	ErrServiceUnavailable     = NewDomainError(ErrCodeServiceUnavailable, "A dependent service is unavailable")
)

// ErrStockConflict is returned by the catalogue when a conditional stock
// decrement finds less stock than requested.
var ErrStockConflict = errors.New("stock conflict")

// FieldViolation names a single invalid request field.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// PaymentError lists every payment field that failed validation.
type PaymentError struct {
	Violations []FieldViolation
}

func (e *PaymentError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Reason
	}
	return "invalid payment: " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrInvalidPayment) true.
func (e *PaymentError) Is(target error) bool {
	return target == ErrInvalidPayment
}

// FieldError reports a missing or malformed request field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrMissingField
}

// StockShortfall describes a product whose stock cannot cover the request.
type StockShortfall struct {
	ProductID string `json:"productId"`
	Requested int64  `json:"requested"`
	Available int    `json:"available"`
}

// UnavailableError reports products that cannot be sold.
// Inactive and Insufficient never share a product id.
type UnavailableError struct {
	Inactive     []string         `json:"inactive,omitempty"`
	Insufficient []StockShortfall `json:"insufficient,omitempty"`
}

// Kind returns the sentinel matching the populated partitions.
func (e *UnavailableError) Kind() *DomainError {
	switch {
	case len(e.Inactive) > 0 && len(e.Insufficient) > 0:
		return ErrMultipleUnavailable
	case len(e.Inactive) > 0:
		return ErrInactiveProducts
	default:
		return ErrInsufficientStock
	}
}

func (e *UnavailableError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind().Message)
	if len(e.Inactive) > 0 {
		fmt.Fprintf(&b, "; inactive: %s", strings.Join(e.Inactive, ", "))
	}
	if len(e.Insufficient) > 0 {
		ids := make([]string, len(e.Insufficient))
		for i, s := range e.Insufficient {
			ids[i] = fmt.Sprintf("%s (requested %d, available %d)", s.ProductID, s.Requested, s.Available)
		}
		fmt.Fprintf(&b, "; insufficient stock: %s", strings.Join(ids, ", "))
	}
	return b.String()
}

func (e *UnavailableError) Is(target error) bool {
	return target == e.Kind()
}

// UnknownRegionError reports a destination region missing from the shipping table.
type UnknownRegionError struct {
	Region string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("unknown destination region %q", e.Region)
}

func (e *UnknownRegionError) Is(target error) bool {
	return target == ErrUnknownRegion
}

// ReconcileError is a post-commit inconsistency: the order is durable but its
// inventory debit did not complete.
type ReconcileError struct {
	OrderID uuid.UUID
	Err     error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("order %s recorded but inventory not reconciled: %v", e.OrderID, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

func (e *ReconcileError) Is(target error) bool {
	return target == ErrInventoryNotReconciled
}

// DependencyError wraps a failure of a downstream collaborator.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

func (e *DependencyError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	var unavailable *UnavailableError
	switch {
	case errors.As(err, new(*ReconcileError)):
		return false
	case errors.As(err, &unavailable):
		return true
	}
	for _, target := range []error{ErrInvalidPayment, ErrMissingField, ErrEmptyOrder, ErrInvalidQuantity, ErrUnknownRegion} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
