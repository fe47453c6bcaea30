package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an authoritative catalogue record.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	StockQuantity int             `json:"stockQuantity" db:"stock_quantity"`
	Active        bool            `json:"active" db:"active"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
