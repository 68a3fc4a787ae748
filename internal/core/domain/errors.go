package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthorized      = errors.New("not authorized")
	ErrNotOwner           = errors.New("not owner")
	ErrDuplicateRequest   = errors.New("duplicate request")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryExists     = errors.New("category already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrUserNotFound       = errors.New("account does not exist")
	ErrUserNotConfirmed   = errors.New("user not confirmed")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInvalidCode        = errors.New("invalid or expired code")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// ValidationError reports a malformed request before any mutation happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ProductNotFoundError names the missing product of a cart line.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// InsufficientStockError carries the product name and the remaining stock
// observed when the shortfall was detected.
type InsufficientStockError struct {
	ProductName string
	Remaining   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s only remains %d", e.ProductName, e.Remaining)
}

// ConcurrentConflictError means the conditional stock write was rejected twice
// for the same line: another writer won both races.
type ConcurrentConflictError struct {
	ProductID string
}

func (e *ConcurrentConflictError) Error() string {
	return fmt.Sprintf("concurrent stock conflict on product %s", e.ProductID)
}

// PersistenceError marks the fatal case where stock was decremented but the
// order record could not be written. Stock is deliberately not re-incremented.
type PersistenceError struct {
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order %s not persisted after reservation: %v", e.OrderID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
