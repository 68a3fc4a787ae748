package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// Ledger assembles and persists the immutable order record once reservation
// has succeeded.
type Ledger struct {
	orders port.OrderRepository
	log    *logrus.Logger
}

func NewLedger(orders port.OrderRepository, log *logrus.Logger) *Ledger {
	return &Ledger{orders: orders, log: log}
}

// Place persists the order. A failed persist is retried once with the same
// id (the write is idempotent on id, so a half-applied first attempt cannot
// double-place). If the retry also fails the stock stays decremented: that is
// a deliberate choice, re-incrementing here would race a client retry into a
// double placement. The condition is surfaced as PersistenceError and logged
// distinctly so an operator can reconcile.
func (l *Ledger) Place(ctx context.Context, owner string, reserved []domain.ReservedLine, total decimal.Decimal) (*domain.Order, error) {
	lines := make([]domain.OrderLine, 0, len(reserved))
	for _, r := range reserved {
		lines = append(lines, domain.OrderLine{
			ProductID:   r.Product.ID,
			ProductName: r.Product.Name,
			Quantity:    r.Quantity,
			UnitPrice:   r.Product.UnitPrice,
		})
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		User:      owner,
		Lines:     lines,
		Total:     total,
		CreatedAt: time.Now(),
	}

	err := l.orders.PutOrder(ctx, order)
	if err != nil {
		err = l.orders.PutOrder(context.WithoutCancel(ctx), order)
	}
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"order_id": order.ID,
			"user":     owner,
			"total":    total.String(),
		}).WithError(err).Error("order persist failed after reservation; stock remains decremented, reconcile manually")
		return nil, &domain.PersistenceError{OrderID: order.ID, Err: err}
	}
	return order, nil
}
