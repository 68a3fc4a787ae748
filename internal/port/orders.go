package port

import (
	"context"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

type OrderRepository interface {
	// PutOrder persists an order. The write is idempotent on the order id so
	// the ledger can retry a failed persist without double-placing.
	PutOrder(ctx context.Context, o *domain.Order) error

	// GetOrder returns (nil, nil) when no order carries the id.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	ListOrdersByUser(ctx context.Context, email string) ([]domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type UserRepository interface {
	// CreateUser fails with domain.ErrEmailExists when the email is taken.
	CreateUser(ctx context.Context, u *domain.User) error

	// GetUserByEmail returns (nil, nil) when the email is unknown.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	UpdatePassword(ctx context.Context, email, passwordHash string) error
	ConfirmUser(ctx context.Context, email string) error
}
