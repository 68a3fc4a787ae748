package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// OrderService runs the order placement pipeline: authorize, validate,
// reserve, price, persist, announce. It also serves the owner-scoped
// read/delete operations.
type OrderService struct {
	engine *ReservationEngine
	ledger *Ledger
	orders port.OrderRepository
	tokens port.TokenStore
	events port.EventPublisher
	log    *logrus.Logger
}

func NewOrderService(engine *ReservationEngine, ledger *Ledger, orders port.OrderRepository, tokens port.TokenStore, events port.EventPublisher, log *logrus.Logger) *OrderService {
	return &OrderService{
		engine: engine,
		ledger: ledger,
		orders: orders,
		tokens: tokens,
		events: events,
		log:    log,
	}
}

// Submit places an order for the caller. requestID is optional; when the
// client supplies one, a repeated submission with the same id is rejected
// with ErrDuplicateRequest instead of reserving stock twice.
func (s *OrderService) Submit(ctx context.Context, claims *domain.Claims, lines []domain.CartLine, requestID string) (*domain.Order, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.Validationf("order must contain at least one line")
	}
	cart := make([]domain.CartLine, len(lines))
	for i, line := range lines {
		if line.ProductID == "" {
			return nil, domain.Validationf("line %d: product is required", i)
		}
		if line.Quantity == 0 {
			line.Quantity = 1
		}
		if line.Quantity < 0 {
			return nil, domain.Validationf("line %d: amount must be a positive integer", i)
		}
		cart[i] = line
	}

	if requestID != "" {
		key := fmt.Sprintf("order:%s:%s", claims.Email, requestID)
		ok, err := s.tokens.SetIdempotency(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, domain.ErrDuplicateRequest
		}
	}

	reserved, err := s.engine.Reserve(ctx, cart)
	if err != nil {
		return nil, err
	}

	order, err := s.ledger.Place(ctx, claims.Email, reserved, TotalPrice(reserved))
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.OrderPlaced(ctx, order)
	}
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, claims *domain.Claims, id string) (*domain.Order, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", id, err)
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	if order.User != claims.Email {
		return nil, domain.ErrNotOwner
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, claims *domain.Claims) ([]domain.Order, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrdersByUser(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", claims.Email, err)
	}
	return orders, nil
}

// Delete removes an order. Only the owner may delete it, regardless of role.
func (s *OrderService) Delete(ctx context.Context, claims *domain.Claims, id string) error {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return err
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return fmt.Errorf("read order %s: %w", id, err)
	}
	if order == nil {
		return domain.ErrOrderNotFound
	}
	if order.User != claims.Email {
		return domain.ErrNotOwner
	}
	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}
