package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/core/service"
	"github.com/ldt1810/shop-backend/internal/port"
)

type HTTPHandler struct {
	catalog  *service.CatalogService
	orders   *service.OrderService
	identity *service.IdentityService
	log      *logrus.Logger
}

func NewHTTPHandler(catalog *service.CatalogService, orders *service.OrderService, identity *service.IdentityService, log *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, orders: orders, identity: identity, log: log}
}

func (h *HTTPHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.log))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	r.POST("/signup", h.signUp)
	r.POST("/signup/confirm", h.confirmSignUp)
	r.POST("/signin", h.signIn)
	r.POST("/password/forgot", h.forgotPassword)
	r.POST("/password/forgot/confirm", h.confirmForgotPassword)

	auth := r.Group("", h.authMiddleware())
	auth.POST("/password/change", h.changePassword)

	auth.POST("/categories", h.createCategory)
	auth.GET("/categories", h.listCategories)
	auth.GET("/categories/:id", h.getCategory)
	auth.PUT("/categories/:id", h.updateCategory)
	auth.DELETE("/categories/:id", h.deleteCategory)

	auth.POST("/products", h.createProduct)
	auth.GET("/products", h.listProducts)
	auth.GET("/products/:id", h.getProduct)
	auth.PUT("/products/:id", h.updateProduct)
	auth.DELETE("/products/:id", h.deleteProduct)

	auth.POST("/orders", h.submitOrder)
	auth.GET("/orders", h.listOrders)
	auth.GET("/orders/:id", h.getOrder)
	auth.DELETE("/orders/:id", h.deleteOrder)

	return r
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type confirmRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *HTTPHandler) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.identity.SignUp(c.Request.Context(), req.Email, req.Password); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sign Up Success"})
}

func (h *HTTPHandler) confirmSignUp(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.identity.ConfirmSignUp(c.Request.Context(), req.Email, req.Code); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Confirm Success"})
}

func (h *HTTPHandler) signIn(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokens, err := h.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

func (h *HTTPHandler) changePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token := bearerToken(c)
	if err := h.identity.ChangePassword(c.Request.Context(), token, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password Changed"})
}

func (h *HTTPHandler) forgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.identity.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reset code sent"})
}

func (h *HTTPHandler) confirmForgotPassword(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.identity.ConfirmForgotPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password Reset"})
}

func (h *HTTPHandler) createCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.catalog.CreateCategory(c.Request.Context(), callerClaims(c), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": category})
}

func (h *HTTPHandler) getCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), callerClaims(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": category})
}

func (h *HTTPHandler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context(), callerClaims(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": categories})
}

func (h *HTTPHandler) updateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category, err := h.catalog.UpdateCategory(c.Request.Context(), callerClaims(c), c.Param("id"), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": category})
}

func (h *HTTPHandler) deleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), callerClaims(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delete successfully"})
}

type productCreateRequest struct {
	Name         string          `json:"name" binding:"required"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	Category     string          `json:"category" binding:"required"`
	RemainAmount int             `json:"remainAmount"`
}

type productUpdateRequest struct {
	Name         *string          `json:"name"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	Category     *string          `json:"category"`
	RemainAmount *int             `json:"remainAmount"`
}

func (h *HTTPHandler) createProduct(c *gin.Context) {
	var req productCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), callerClaims(c), service.ProductInput{
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Stock:      req.RemainAmount,
		CategoryID: req.Category,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *HTTPHandler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), callerClaims(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *HTTPHandler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), callerClaims(c), port.ProductFilter{
		CategoryID: c.Query("category"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": products})
}

func (h *HTTPHandler) updateProduct(c *gin.Context) {
	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), callerClaims(c), c.Param("id"), service.ProductUpdate{
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Stock:      req.RemainAmount,
		CategoryID: req.Category,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": product})
}

func (h *HTTPHandler) deleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), callerClaims(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delete Successfully"})
}

type cartLineRequest struct {
	Product string `json:"product" binding:"required"`
	Amount  int    `json:"amount"`
}

// submitOrder accepts the cart as a bare array of lines. An optional
// X-Request-ID header makes the submission idempotent.
func (h *HTTPHandler) submitOrder(c *gin.Context) {
	var req []cartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lines := make([]domain.CartLine, len(req))
	for i, line := range req {
		lines[i] = domain.CartLine{ProductID: line.Product, Quantity: line.Amount}
	}

	order, err := h.orders.Submit(c.Request.Context(), callerClaims(c), lines, c.GetHeader("X-Request-ID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *HTTPHandler) getOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), callerClaims(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *HTTPHandler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), callerClaims(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": orders})
}

func (h *HTTPHandler) deleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), callerClaims(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delete successfully"})
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 {
		return authHeader[7:]
	}
	return ""
}
