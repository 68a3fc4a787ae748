package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// CatalogService covers the category and product operations, including the
// category-product membership maintenance that runs alongside product writes.
type CatalogService struct {
	catalog port.CatalogRepository
	log     *logrus.Logger
}

func NewCatalogService(catalog port.CatalogRepository, log *logrus.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, log: log}
}

// CreateCategory enforces name uniqueness with a scan-then-put. That check is
// best-effort, not transactional: two concurrent creates with the same name
// can both pass the scan.
func (s *CatalogService) CreateCategory(ctx context.Context, claims *domain.Claims, name string) (*domain.Category, error) {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}

	existing, err := s.catalog.FindCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrCategoryExists
	}

	now := time.Now()
	category := &domain.Category{
		ID:        uuid.NewString(),
		Name:      name,
		Products:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.catalog.PutCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("put category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, claims *domain.Claims, id string) (*domain.Category, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read category %s: %w", id, err)
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context, claims *domain.Claims) ([]domain.Category, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory renames a category. Membership is keyed by category id, so a
// rename does not touch the member set.
func (s *CatalogService) UpdateCategory(ctx context.Context, claims *domain.Claims, id, name string) (*domain.Category, error) {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read category %s: %w", id, err)
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	category.Name = name
	category.UpdatedAt = time.Now()
	if err := s.catalog.PutCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("put category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, claims *domain.Claims, id string) error {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return err
	}
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("read category %s: %w", id, err)
	}
	if category == nil {
		return domain.ErrCategoryNotFound
	}
	if err := s.catalog.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

type ProductInput struct {
	Name       string
	UnitPrice  decimal.Decimal
	Stock      int
	CategoryID string
}

// ProductUpdate carries the optional fields of a partial product update.
type ProductUpdate struct {
	Name       *string
	UnitPrice  *decimal.Decimal
	Stock      *int
	CategoryID *string
}

func (s *CatalogService) CreateProduct(ctx context.Context, claims *domain.Claims, in ProductInput) (*domain.Product, error) {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, domain.Validationf("name is required")
	}
	if in.UnitPrice.IsNegative() {
		return nil, domain.Validationf("unitPrice must not be negative")
	}
	if in.Stock < 0 {
		return nil, domain.Validationf("remainAmount must not be negative")
	}
	if in.CategoryID == "" {
		return nil, domain.Validationf("category is required")
	}

	category, err := s.catalog.GetCategory(ctx, in.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("read category %s: %w", in.CategoryID, err)
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	now := time.Now()
	product := &domain.Product{
		ID:         uuid.NewString(),
		Name:       in.Name,
		UnitPrice:  in.UnitPrice,
		Stock:      in.Stock,
		CategoryID: in.CategoryID,
		Image:      "",
		Thumbnail:  "",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.catalog.PutProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("put product: %w", err)
	}

	if err := s.relink(ctx, "", in.CategoryID, "", in.Name); err != nil {
		s.log.WithFields(logrus.Fields{
			"product_id": product.ID,
			"category":   in.CategoryID,
		}).WithError(err).Warn("category membership update failed")
	}
	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, claims *domain.Claims, id string) (*domain.Product, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", id, err)
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, claims *domain.Claims, f port.ProductFilter) ([]domain.Product, error) {
	if err := requireRole(claims, domain.RoleAdmin, domain.RoleUser); err != nil {
		return nil, err
	}
	products, err := s.catalog.ListProducts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// UpdateProduct applies a partial update. When the update changes the
// product's name or category, the membership maintainer moves the name
// between the affected member sets.
func (s *CatalogService) UpdateProduct(ctx context.Context, claims *domain.Claims, id string, upd ProductUpdate) (*domain.Product, error) {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return nil, err
	}
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read product %s: %w", id, err)
	}
	if product == nil {
		return nil, &domain.ProductNotFoundError{ProductID: id}
	}

	oldName, oldCategory := product.Name, product.CategoryID

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, domain.Validationf("name must not be empty")
		}
		product.Name = name
	}
	if upd.UnitPrice != nil {
		if upd.UnitPrice.IsNegative() {
			return nil, domain.Validationf("unitPrice must not be negative")
		}
		product.UnitPrice = *upd.UnitPrice
	}
	if upd.Stock != nil {
		if *upd.Stock < 0 {
			return nil, domain.Validationf("remainAmount must not be negative")
		}
		product.Stock = *upd.Stock
	}
	if upd.CategoryID != nil {
		category, err := s.catalog.GetCategory(ctx, *upd.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("read category %s: %w", *upd.CategoryID, err)
		}
		if category == nil {
			return nil, domain.ErrCategoryNotFound
		}
		product.CategoryID = *upd.CategoryID
	}

	product.UpdatedAt = time.Now()
	if err := s.catalog.PutProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("put product: %w", err)
	}

	if err := s.relink(ctx, oldCategory, product.CategoryID, oldName, product.Name); err != nil {
		s.log.WithFields(logrus.Fields{
			"product_id":   product.ID,
			"old_category": oldCategory,
			"new_category": product.CategoryID,
		}).WithError(err).Warn("category membership update failed")
	}
	return product, nil
}

// DeleteProduct removes the product and drops its name from its category's
// member set so the membership invariant survives deletion.
func (s *CatalogService) DeleteProduct(ctx context.Context, claims *domain.Claims, id string) error {
	if err := requireRole(claims, domain.RoleAdmin); err != nil {
		return err
	}
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("read product %s: %w", id, err)
	}
	if product == nil {
		return &domain.ProductNotFoundError{ProductID: id}
	}
	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if err := s.catalog.RemoveCategoryMember(ctx, product.CategoryID, product.Name); err != nil {
		s.log.WithFields(logrus.Fields{
			"product_id": id,
			"category":   product.CategoryID,
		}).WithError(err).Warn("category membership update failed")
	}
	return nil
}

// relink keeps the bidirectional category-product relation in step when a
// product is created, renamed or recategorized. The stale entry is removed
// before the new one is added: a crash between the two leaves the product
// under-listed, never ghost-listed. A same-category rename is a
// delete+add pair against the same set.
func (s *CatalogService) relink(ctx context.Context, oldCategory, newCategory, oldName, newName string) error {
	if oldCategory == newCategory && oldName == newName {
		return nil
	}
	if oldCategory != "" && oldName != "" {
		if err := s.catalog.RemoveCategoryMember(ctx, oldCategory, oldName); err != nil {
			return fmt.Errorf("remove %q from category %s: %w", oldName, oldCategory, err)
		}
	}
	if newCategory != "" && newName != "" {
		if err := s.catalog.AddCategoryMember(ctx, newCategory, newName); err != nil {
			return fmt.Errorf("add %q to category %s: %w", newName, newCategory, err)
		}
	}
	return nil
}
