package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (product, quantity) unit of an order submission. Quantity
// defaults to 1 when the client omits it.
type CartLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"amount"`
}

// ReservedLine pairs a cart line with the product snapshot read at the moment
// its stock was decremented. The snapshot carries the pre-decrement unit price
// so pricing never re-reads the store.
type ReservedLine struct {
	Product  Product
	Quantity int
}

type OrderLine struct {
	ProductID   string          `json:"product"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"amount"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Order is immutable once persisted. The only permitted mutation is deletion
// by its owner.
type Order struct {
	ID        string          `json:"id"`
	User      string          `json:"user"`
	Lines     []OrderLine     `json:"detail"`
	Total     decimal.Decimal `json:"totalPrice"`
	CreatedAt time.Time       `json:"createdAt"`
}
