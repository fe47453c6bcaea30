package service

import (
	"fmt"
	"strings"

	"kart-checkout/internal/model"
)

type requiredField struct {
	name  string
	value func(req *model.OrderRequest) string
}

// requiredFields lists the request fields checkout cannot proceed without.
var requiredFields = []requiredField{
	{"deliveryAddress.street", func(r *model.OrderRequest) string { return r.DeliveryAddress.Street }},
	{"deliveryAddress.city", func(r *model.OrderRequest) string { return r.DeliveryAddress.City }},
	{"deliveryAddress.region", func(r *model.OrderRequest) string { return r.DeliveryAddress.Region }},
	{"deliveryAddress.postalCode", func(r *model.OrderRequest) string { return r.DeliveryAddress.PostalCode }},
	{"billingAddress.street", func(r *model.OrderRequest) string { return r.BillingAddress.Street }},
	{"billingAddress.city", func(r *model.OrderRequest) string { return r.BillingAddress.City }},
	{"billingAddress.region", func(r *model.OrderRequest) string { return r.BillingAddress.Region }},
	{"billingAddress.postalCode", func(r *model.OrderRequest) string { return r.BillingAddress.PostalCode }},
	{"billingAddress.email", func(r *model.OrderRequest) string { return r.BillingAddress.Email }},
}

// validateRequired returns a *model.FieldError for the first blank required
// field, including the product id of every item.
func validateRequired(req *model.OrderRequest) error {
	for _, f := range requiredFields {
		if strings.TrimSpace(f.value(req)) == "" {
			return &model.FieldError{Field: f.name, Reason: "is required"}
		}
	}

	if !strings.Contains(req.BillingAddress.Email, "@") {
		return &model.FieldError{Field: "billingAddress.email", Reason: "must be an email address"}
	}

	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return &model.FieldError{Field: fmt.Sprintf("items[%d].productId", i), Reason: "is required"}
		}
	}

	return nil
}
