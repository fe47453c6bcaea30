package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Address is a postal address. Email is only meaningful on billing addresses.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Email      string `json:"email,omitempty"`
}

// PaymentInstrument is the card supplied with a checkout request.
// It only lives for the duration of the request.
type PaymentInstrument struct {
	CardNumber string `json:"cardNumber"`
	CVV        string `json:"cvv"`
	HolderName string `json:"holderName"`
	Expiration string `json:"expiration"` // MM/YY
}

// Last4 returns the last four digits of the card number.
func (p *PaymentInstrument) Last4() string {
	if p == nil || len(p.CardNumber) < 4 {
		return ""
	}
	return p.CardNumber[len(p.CardNumber)-4:]
}

// Order represents a completed checkout.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	DeliveryAddress Address         `json:"deliveryAddress"`
	BillingAddress  Address         `json:"billingAddress"`
	CardHolder      string          `json:"cardHolder" db:"card_holder"`
	CardLast4       string          `json:"cardLast4" db:"card_last4"`
	PromoCode       *PromoCode      `json:"promoCode,omitempty"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	FinalPrice      decimal.Decimal `json:"finalPrice" db:"final_price"`
	ShippingCharge  decimal.Decimal `json:"shippingCharge" db:"shipping_charge"`
	LineItems       []LineItem      `json:"lineItems"`
}

// LineItem represents one product-quantity pair in an order.
// OrderID is the non-owning back-reference and is never serialised.
type LineItem struct {
	ID       uuid.UUID `json:"id" db:"id"`
	OrderID  uuid.UUID `json:"-" db:"order_id"`
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity" db:"quantity"`
}

// OrderRequest represents the request payload for submitting an order.
type OrderRequest struct {
	DeliveryAddress Address            `json:"deliveryAddress"`
	BillingAddress  Address            `json:"billingAddress"`
	Payment         *PaymentInstrument `json:"payment"`
	PromoCode       *string            `json:"promoCode,omitempty"`
	Items           []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents a single item in an order request.
// Anything other than ProductID and Quantity is accepted on the wire but ignored.
type OrderItemRequest struct {
	ID            *uuid.UUID       `json:"id,omitempty"`
	ProductID     string           `json:"productId"`
	Quantity      int              `json:"quantity"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Active        *bool            `json:"active,omitempty"`
	StockQuantity *int             `json:"stockQuantity,omitempty"`
}
