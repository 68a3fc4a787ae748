package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// ReservationEngine verifies and decrements stock for a cart before the order
// is persisted. All shared state lives in the catalog store; the only
// concurrency control across requests is the store's conditional write.
type ReservationEngine struct {
	catalog port.CatalogRepository
	log     *logrus.Logger
}

func NewReservationEngine(catalog port.CatalogRepository, log *logrus.Logger) *ReservationEngine {
	return &ReservationEngine{catalog: catalog, log: log}
}

// Reserve runs the two-phase protocol: existence check over every line, then
// a conditional decrement per line in cart order. On any failure after a
// partial decrement it rolls the already-reserved lines back and returns the
// failure, so a single cart is all-or-nothing.
func (e *ReservationEngine) Reserve(ctx context.Context, lines []domain.CartLine) ([]domain.ReservedLine, error) {
	if len(lines) == 0 {
		return nil, domain.Validationf("cart must not be empty")
	}

	// Phase 1: nothing is mutated yet, so the lines can be checked in
	// parallel.
	g, gctx := errgroup.WithContext(ctx)
	for _, line := range lines {
		line := line
		g.Go(func() error {
			p, err := e.catalog.GetProduct(gctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("read product %s: %w", line.ProductID, err)
			}
			if p == nil {
				return &domain.ProductNotFoundError{ProductID: line.ProductID}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: strictly sequential in cart order so the rollback order is
	// well-defined.
	reserved := make([]domain.ReservedLine, 0, len(lines))
	for _, line := range lines {
		snapshot, err := e.decrementLine(ctx, line)
		if err != nil {
			e.rollback(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, domain.ReservedLine{Product: *snapshot, Quantity: line.Quantity})
	}
	return reserved, nil
}

// decrementLine re-reads the product, checks capacity and writes the new
// stock conditioned on the value it just observed. A rejected conditional
// write gets exactly one more read-check-write attempt before the line fails
// with ConcurrentConflict.
func (e *ReservationEngine) decrementLine(ctx context.Context, line domain.CartLine) (*domain.Product, error) {
	for attempt := 0; attempt < 2; attempt++ {
		p, err := e.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("read product %s: %w", line.ProductID, err)
		}
		if p == nil {
			// Deleted between the existence check and now.
			return nil, &domain.ProductNotFoundError{ProductID: line.ProductID}
		}
		if p.Stock-line.Quantity < 0 {
			return nil, &domain.InsufficientStockError{ProductName: p.Name, Remaining: p.Stock}
		}

		err = e.catalog.DecrementStock(ctx, line.ProductID, line.Quantity, p.Stock)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, port.ErrStockConflict) {
			return nil, fmt.Errorf("decrement stock %s: %w", line.ProductID, err)
		}
	}
	return nil, &domain.ConcurrentConflictError{ProductID: line.ProductID}
}

// rollback issues compensating increments for every already-decremented line
// in reverse order. A failed increment leaks stock until an operator
// reconciles; it is logged loudly and never retried here, because the order
// is not persisted either way.
func (e *ReservationEngine) rollback(ctx context.Context, reserved []domain.ReservedLine) {
	// Keep compensating even when the request context is already cancelled.
	ctx = context.WithoutCancel(ctx)
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if err := e.catalog.IncrementStock(ctx, r.Product.ID, r.Quantity); err != nil {
			e.log.WithFields(logrus.Fields{
				"product_id": r.Product.ID,
				"quantity":   r.Quantity,
			}).WithError(err).Error("reservation rollback failed, stock leaked")
		}
	}
}
