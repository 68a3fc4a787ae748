package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

// MemoryStore is an in-process implementation of every repository port,
// used by tests and the stress tool. A single mutex makes each operation
// atomic, matching the per-key atomicity the real store guarantees.
type MemoryStore struct {
	mu          sync.Mutex
	products    map[string]domain.Product
	categories  map[string]domain.Category
	members     map[string]map[string]struct{}
	orders      map[string]domain.Order
	users       map[string]domain.User
	idempotency map[string]struct{}
	sessions    map[string]expiringValue
	codes       map[string]expiringValue
}

type expiringValue struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products:    make(map[string]domain.Product),
		categories:  make(map[string]domain.Category),
		members:     make(map[string]map[string]struct{}),
		orders:      make(map[string]domain.Order),
		users:       make(map[string]domain.User),
		idempotency: make(map[string]struct{}),
		sessions:    make(map[string]expiringValue),
		codes:       make(map[string]expiringValue),
	}
}

var (
	_ port.CatalogRepository = (*MemoryStore)(nil)
	_ port.OrderRepository   = (*MemoryStore)(nil)
	_ port.UserRepository    = (*MemoryStore)(nil)
	_ port.TokenStore        = (*MemoryStore)(nil)
)

func (m *MemoryStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStore) PutProduct(ctx context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) ListProducts(ctx context.Context, f port.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, productID string, quantity, observed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok || p.Stock != observed {
		return port.ErrStockConflict
	}
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	m.products[productID] = p
	return nil
}

func (m *MemoryStore) IncrementStock(ctx context.Context, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil
	}
	p.Stock += quantity
	p.UpdatedAt = time.Now()
	m.products[productID] = p
	return nil
}

func (m *MemoryStore) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cp := c
	cp.Products = m.memberNames(id)
	return &cp, nil
}

func (m *MemoryStore) PutCategory(ctx context.Context, c *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = *c
	if _, ok := m.members[c.ID]; !ok {
		m.members[c.ID] = make(map[string]struct{})
	}
	return nil
}

func (m *MemoryStore) DeleteCategory(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.categories, id)
	delete(m.members, id)
	return nil
}

func (m *MemoryStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Category, 0, len(m.categories))
	for id, c := range m.categories {
		c.Products = m.memberNames(id)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.categories {
		if c.Name == name {
			cp := c
			cp.Products = m.memberNames(id)
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) AddCategoryMember(ctx context.Context, categoryID, productName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.members[categoryID]
	if !ok {
		set = make(map[string]struct{})
		m.members[categoryID] = set
	}
	set[productName] = struct{}{}
	return nil
}

func (m *MemoryStore) RemoveCategoryMember(ctx context.Context, categoryID, productName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.members[categoryID]; ok {
		delete(set, productName)
	}
	return nil
}

// memberNames materializes the member set as a sorted slice. Callers hold mu.
func (m *MemoryStore) memberNames(categoryID string) []string {
	names := make([]string, 0, len(m.members[categoryID]))
	for name := range m.members[categoryID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *MemoryStore) PutOrder(ctx context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.ID]; ok {
		return nil
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (m *MemoryStore) ListOrdersByUser(ctx context.Context, email string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0)
	for _, o := range m.orders {
		if o.User == email {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return domain.ErrEmailExists
	}
	m.users[u.Email] = *u
	return nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (m *MemoryStore) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	m.users[email] = u
	return nil
}

func (m *MemoryStore) ConfirmUser(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Confirmed = true
	u.UpdatedAt = time.Now()
	m.users[email] = u
	return nil
}

func (m *MemoryStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.idempotency[key]; ok {
		return false, nil
	}
	m.idempotency[key] = struct{}{}
	return true, nil
}

func (m *MemoryStore) PutSession(ctx context.Context, token, claimsJSON string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = expiringValue{value: claimsJSON, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, token string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok || time.Now().After(s.expiresAt) {
		return "", nil
	}
	return s.value, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) PutCode(ctx context.Context, key, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[key] = expiringValue{value: code, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryStore) GetCode(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.codes[key]
	if !ok || time.Now().After(c.expiresAt) {
		return "", nil
	}
	return c.value, nil
}

func (m *MemoryStore) DeleteCode(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, key)
	return nil
}
