package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// mockOrders records every PutOrder attempt and can fail the first N of them.
type mockOrders struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	failNext int
	putIDs   []string
}

var _ port.OrderRepository = (*mockOrders)(nil)

func newMockOrders() *mockOrders {
	return &mockOrders{orders: make(map[string]domain.Order)}
}

func (m *mockOrders) PutOrder(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putIDs = append(m.putIDs, o.ID)
	if m.failNext > 0 {
		m.failNext--
		return fmt.Errorf("write timed out")
	}
	if _, ok := m.orders[o.ID]; ok {
		return nil
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *mockOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (m *mockOrders) ListOrdersByUser(ctx context.Context, email string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range m.orders {
		if o.User == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrders) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func someReservedLines() []domain.ReservedLine {
	return []domain.ReservedLine{
		{
			Product: domain.Product{
				ID:        "p1",
				Name:      "Widget",
				UnitPrice: decimal.NewFromInt(5),
			},
			Quantity: 2,
		},
	}
}

func TestPlace_Success(t *testing.T) {
	orders := newMockOrders()
	ledger := NewLedger(orders, testLogger())

	order, err := ledger.Place(context.Background(), "alice@example.com", someReservedLines(), decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if order.ID == "" {
		t.Error("expected a generated order id")
	}
	if order.User != "alice@example.com" {
		t.Errorf("unexpected owner %q", order.User)
	}
	if len(order.Lines) != 1 || order.Lines[0].ProductName != "Widget" || order.Lines[0].Quantity != 2 {
		t.Errorf("unexpected lines: %+v", order.Lines)
	}
	if !order.Total.Equal(decimal.NewFromInt(10)) {
		t.Errorf("unexpected total %s", order.Total)
	}

	stored, _ := orders.GetOrder(context.Background(), order.ID)
	if stored == nil {
		t.Fatal("order not persisted")
	}
}

// A failed persist is retried once with the same order id, so a half-applied
// first attempt cannot turn into two orders.
func TestPlace_RetriesOnceWithSameID(t *testing.T) {
	orders := newMockOrders()
	orders.failNext = 1
	ledger := NewLedger(orders, testLogger())

	order, err := ledger.Place(context.Background(), "alice@example.com", someReservedLines(), decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if len(orders.putIDs) != 2 {
		t.Fatalf("expected 2 put attempts, got %d", len(orders.putIDs))
	}
	if orders.putIDs[0] != orders.putIDs[1] {
		t.Errorf("retry must reuse the order id: %q vs %q", orders.putIDs[0], orders.putIDs[1])
	}
	if orders.putIDs[0] != order.ID {
		t.Errorf("returned id %q does not match persisted id %q", order.ID, orders.putIDs[0])
	}
}

func TestPlace_SecondFailureIsPersistenceError(t *testing.T) {
	orders := newMockOrders()
	orders.failNext = 2
	ledger := NewLedger(orders, testLogger())

	_, err := ledger.Place(context.Background(), "alice@example.com", someReservedLines(), decimal.NewFromInt(10))
	var persistenceErr *domain.PersistenceError
	if !errors.As(err, &persistenceErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if persistenceErr.OrderID == "" {
		t.Error("expected the failed order id in the error")
	}
	if len(orders.putIDs) != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", len(orders.putIDs))
	}
	if len(orders.orders) != 0 {
		t.Errorf("expected no persisted order, got %d", len(orders.orders))
	}
}
