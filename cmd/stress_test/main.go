package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/adapter/storage"
	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/core/service"
)

const (
	productID     = "stress-widget"
	initialStock  = 100
	totalRequests = 500
	perOrderQty   = 1
)

// Fires concurrent single-line orders at one product and checks the oversell
// invariant: successes × quantity never exceeds the initial stock, and the
// remaining stock is exactly what the successes left behind.
func main() {
	ctx := context.Background()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := storage.NewMemoryStore()
	now := time.Now()
	store.PutCategory(ctx, &domain.Category{ID: "stress-cat", Name: "stress", CreatedAt: now, UpdatedAt: now})
	store.PutProduct(ctx, &domain.Product{
		ID:         productID,
		Name:       "Widget",
		UnitPrice:  decimal.NewFromInt(10),
		Stock:      initialStock,
		CategoryID: "stress-cat",
		CreatedAt:  now,
		UpdatedAt:  now,
	})

	engine := service.NewReservationEngine(store, logger)
	ledger := service.NewLedger(store, logger)
	orders := service.NewOrderService(engine, ledger, store, store, nil, logger)

	claims := &domain.Claims{Email: "stress@example.com", Role: domain.RoleUser}
	cart := []domain.CartLine{{ProductID: productID, Quantity: perOrderQty}}

	var success, soldOut, conflict, other atomic.Int64
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := orders.Submit(ctx, claims, cart, fmt.Sprintf("req-%d", n))
			var insufficient *domain.InsufficientStockError
			var concurrent *domain.ConcurrentConflictError
			switch {
			case err == nil:
				success.Add(1)
			case errors.As(err, &insufficient):
				soldOut.Add(1)
			case errors.As(err, &concurrent):
				conflict.Add(1)
			default:
				other.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	product, _ := store.GetProduct(ctx, productID)

	fmt.Printf("requests:   %d in %s\n", totalRequests, elapsed)
	fmt.Printf("success:    %d\n", success.Load())
	fmt.Printf("sold out:   %d\n", soldOut.Load())
	fmt.Printf("conflicts:  %d\n", conflict.Load())
	fmt.Printf("other:      %d\n", other.Load())
	fmt.Printf("remaining:  %d\n", product.Stock)

	decremented := int(success.Load()) * perOrderQty
	if product.Stock < 0 {
		log.Fatalf("INVARIANT VIOLATED: remaining stock is negative (%d)", product.Stock)
	}
	if product.Stock != initialStock-decremented {
		log.Fatalf("INVARIANT VIOLATED: expected remaining %d, got %d", initialStock-decremented, product.Stock)
	}
	fmt.Println("oversell invariant holds")
}
