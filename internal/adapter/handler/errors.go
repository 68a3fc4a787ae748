package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

// writeError maps each failure kind to its fixed status code and message.
// Internal errors are logged and returned as a generic failure without
// leaking details.
func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		notFoundErr    *domain.ProductNotFoundError
		stockErr       *domain.InsufficientStockError
		conflictErr    *domain.ConcurrentConflictError
		persistenceErr *domain.PersistenceError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
	case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, domain.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "You don't have permission to use this function"})
	case errors.Is(err, domain.ErrNotOwner):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Order only can be deleted by owner"})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{"message": "Product Not Found"})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusNotFound, gin.H{"message": stockErr.Error()})
	case errors.Is(err, domain.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Category Not Found"})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Order not found"})
	case errors.Is(err, domain.ErrCategoryExists):
		c.JSON(http.StatusNotAcceptable, gin.H{"message": "Category Exist!!!"})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, gin.H{"message": "Concurrent stock update, please retry"})
	case errors.Is(err, domain.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"message": "Duplicate request"})
	case errors.Is(err, domain.ErrEmailExists):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email Was Exist!!"})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Incorrect email or password"})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Account not exist"})
	case errors.Is(err, domain.ErrUserNotConfirmed):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User didn't confirm yet"})
	case errors.Is(err, domain.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid or expired code"})
	case errors.As(err, &persistenceErr):
		// Already logged loudly by the ledger.
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
	default:
		h.log.WithError(err).Error("unexpected error")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
	}
}
