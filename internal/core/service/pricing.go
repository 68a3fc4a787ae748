package service

import (
	"github.com/shopspring/decimal"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

// TotalPrice sums unit price times quantity over the snapshots captured
// during reservation. It never re-reads the store, so the total reflects the
// prices in effect at the moment stock was committed.
func TotalPrice(reserved []domain.ReservedLine) decimal.Decimal {
	total := decimal.Zero
	for _, r := range reserved {
		total = total.Add(r.Product.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}
	return total
}
