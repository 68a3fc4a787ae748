package port

import (
	"context"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

// EventPublisher announces placed orders to downstream consumers. Publishing
// is best-effort: a failed publish never fails the order.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, o *domain.Order)
}
