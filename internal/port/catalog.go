package port

import (
	"context"
	"errors"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

// ErrStockConflict is returned by DecrementStock when the conditional write
// was rejected because the observed stock value changed underneath the caller.
var ErrStockConflict = errors.New("stock conflict")

type ProductFilter struct {
	CategoryID string
}

// CatalogRepository is the external catalog store: per-key atomic reads and
// per-key atomic conditional writes over products and categories, no
// multi-key transaction. Get methods return (nil, nil) when the key is
// absent.
type CatalogRepository interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	PutProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, error)

	// DecrementStock subtracts quantity from the product's stock, conditioned
	// on the stock still equalling observed. Returns ErrStockConflict when the
	// condition fails.
	DecrementStock(ctx context.Context, productID string, quantity, observed int) error

	// IncrementStock adds quantity back unconditionally (compensating write).
	IncrementStock(ctx context.Context, productID string, quantity int) error

	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	PutCategory(ctx context.Context, c *domain.Category) error
	DeleteCategory(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// FindCategoryByName is the filtered-scan used for the best-effort name
	// uniqueness check. Returns (nil, nil) when no category carries the name.
	FindCategoryByName(ctx context.Context, name string) (*domain.Category, error)

	// AddCategoryMember and RemoveCategoryMember maintain the set of product
	// names attached to a category. Adding an existing member is a no-op.
	AddCategoryMember(ctx context.Context, categoryID, productName string) error
	RemoveCategoryMember(ctx context.Context, categoryID, productName string) error
}
