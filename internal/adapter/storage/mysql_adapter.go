package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/port"
)

const mysqlDuplicateEntry = 1062

// MySQLAdapter backs every repository port with MySQL. Stock mutation goes
// through a conditional UPDATE so concurrent reservations on the same product
// cannot lose updates.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

var (
	_ port.CatalogRepository = (*MySQLAdapter)(nil)
	_ port.OrderRepository   = (*MySQLAdapter)(nil)
	_ port.UserRepository    = (*MySQLAdapter)(nil)
)

func (m *MySQLAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, unit_price, stock, category_id, image, thumbnail, created_at, updated_at
		FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Stock, &p.CategoryID, &p.Image, &p.Thumbnail, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) PutProduct(ctx context.Context, p *domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, name, unit_price, stock, category_id, image, thumbnail, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), unit_price = VALUES(unit_price), stock = VALUES(stock),
			category_id = VALUES(category_id), image = VALUES(image), thumbnail = VALUES(thumbnail),
			updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.UnitPrice, p.Stock, p.CategoryID, p.Image, p.Thumbnail, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteProduct(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context, f port.ProductFilter) ([]domain.Product, error) {
	query := `
		SELECT id, name, unit_price, stock, category_id, image, thumbnail, created_at, updated_at
		FROM products`
	args := []any{}
	if f.CategoryID != "" {
		query += ` WHERE category_id = ?`
		args = append(args, f.CategoryID)
	}
	query += ` ORDER BY id`

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Stock, &p.CategoryID, &p.Image, &p.Thumbnail, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DecrementStock is the conditional write: the decrement only applies while
// the stock still equals the value the caller observed.
func (m *MySQLAdapter) DecrementStock(ctx context.Context, productID string, quantity, observed int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock = ?`,
		quantity, productID, observed,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrStockConflict
	}
	return nil
}

func (m *MySQLAdapter) IncrementStock(ctx context.Context, productID string, quantity int) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?`,
		quantity, productID,
	)
	if err != nil {
		return fmt.Errorf("increment stock: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	err := m.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query category: %w", err)
	}

	members, err := m.categoryMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Products = members
	return &c, nil
}

func (m *MySQLAdapter) PutCategory(ctx context.Context, c *domain.Category) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), updated_at = VALUES(updated_at)`,
		c.ID, c.Name, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put category: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) DeleteCategory(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM category_products WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category members: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		members, err := m.categoryMembers(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Products = members
	}
	return out, nil
}

func (m *MySQLAdapter) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var id string
	err := m.db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ? LIMIT 1`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan categories by name: %w", err)
	}
	return m.GetCategory(ctx, id)
}

func (m *MySQLAdapter) AddCategoryMember(ctx context.Context, categoryID, productName string) error {
	// INSERT IGNORE keeps set semantics: adding an existing member is a no-op.
	_, err := m.db.ExecContext(ctx, `
		INSERT IGNORE INTO category_products (category_id, product_name) VALUES (?, ?)`,
		categoryID, productName,
	)
	if err != nil {
		return fmt.Errorf("add category member: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RemoveCategoryMember(ctx context.Context, categoryID, productName string) error {
	_, err := m.db.ExecContext(ctx, `
		DELETE FROM category_products WHERE category_id = ? AND product_name = ?`,
		categoryID, productName,
	)
	if err != nil {
		return fmt.Errorf("remove category member: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) categoryMembers(ctx context.Context, categoryID string) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_name FROM category_products WHERE category_id = ? ORDER BY product_name`,
		categoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("query category members: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category member: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PutOrder writes the order and its lines in one transaction. The insert is
// keyed on the order id with INSERT IGNORE, so a retry with the same id after
// a half-applied attempt cannot create a second order.
func (m *MySQLAdapter) PutOrder(ctx context.Context, o *domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT IGNORE INTO orders (id, user_email, total, created_at)
		VALUES (?, ?, ?, ?)`,
		o.ID, o.User, o.Total, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Already persisted by a previous attempt.
		return tx.Commit()
	}

	for i, line := range o.Lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, line_no, product_id, product_name, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, i, line.ProductID, line.ProductName, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_email, total, created_at FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.User, &o.Total, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	lines, err := m.orderLines(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (m *MySQLAdapter) ListOrdersByUser(ctx context.Context, email string) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_email, total, created_at FROM orders
		WHERE user_email = ? ORDER BY created_at`, email,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.User, &o.Total, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		lines, err := m.orderLines(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Lines = lines
	}
	return out, nil
}

func (m *MySQLAdapter) DeleteOrder(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("delete order lines: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price FROM order_lines
		WHERE order_id = ? ORDER BY line_no`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (m *MySQLAdapter) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, role, confirmed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.Role, u.Confirmed, u.CreatedAt, u.UpdatedAt,
	)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return domain.ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := m.db.QueryRowContext(ctx, `
		SELECT email, password_hash, role, confirmed, created_at, updated_at
		FROM users WHERE email = ?`, email,
	).Scan(&u.Email, &u.PasswordHash, &u.Role, &u.Confirmed, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (m *MySQLAdapter) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = NOW() WHERE email = ?`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ConfirmUser(ctx context.Context, email string) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE users SET confirmed = TRUE, updated_at = NOW() WHERE email = ?`,
		email,
	)
	if err != nil {
		return fmt.Errorf("confirm user: %w", err)
	}
	return nil
}
