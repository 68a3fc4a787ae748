package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ldt1810/shop-backend/internal/adapter/identity"
	"github.com/ldt1810/shop-backend/internal/adapter/storage"
	"github.com/ldt1810/shop-backend/internal/core/domain"
	"github.com/ldt1810/shop-backend/internal/core/service"
)

type testEnv struct {
	router *gin.Engine
	store  *storage.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	store := storage.NewMemoryStore()
	provider := identity.NewLocalProvider(store, store, log)

	engine := service.NewReservationEngine(store, log)
	ledger := service.NewLedger(store, log)
	orders := service.NewOrderService(engine, ledger, store, store, nil, log)
	catalog := service.NewCatalogService(store, log)
	ident := service.NewIdentityService(provider, log)

	h := NewHTTPHandler(catalog, orders, ident, log)
	return &testEnv{router: h.Router(), store: store}
}

// seedAccount writes a confirmed account straight into the store and signs it
// in over HTTP, returning the access token.
func (e *testEnv) seedAccount(t *testing.T, email, password, role string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now()
	if err := e.store.CreateUser(context.Background(), &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Confirmed:    true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	w := e.do(t, http.MethodPost, "/signin", "", map[string]string{"email": email, "password": password}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signin returned %d: %s", w.Code, w.Body.String())
	}
	var tokens domain.Tokens
	if err := json.Unmarshal(w.Body.Bytes(), &tokens); err != nil {
		t.Fatalf("decode tokens: %v", err)
	}
	return tokens.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode message from %q: %v", w.Body.String(), err)
	}
	return body.Message
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/health", "", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/products"},
		{http.MethodPost, "/orders"},
		{http.MethodGet, "/categories"},
	} {
		w := e.do(t, tc.method, tc.path, "", nil, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", tc.method, tc.path, w.Code)
		}
		if got := message(t, w); got != "You don't have permission to use this function" {
			t.Errorf("%s %s: unexpected message %q", tc.method, tc.path, got)
		}
	}
}

func TestSignUpFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	w := e.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email": "carol@example.com", "password": "Passw0rdok",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signup returned %d: %s", w.Code, w.Body.String())
	}

	// Signing in before confirmation must be refused.
	w = e.do(t, http.MethodPost, "/signin", "", map[string]string{
		"email": "carol@example.com", "password": "Passw0rdok",
	}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before confirmation, got %d", w.Code)
	}
	if got := message(t, w); got != "User didn't confirm yet" {
		t.Errorf("unexpected message %q", got)
	}

	code, _ := e.store.GetCode(ctx, "confirm:carol@example.com")
	if code == "" {
		t.Fatal("expected stored confirmation code")
	}
	w = e.do(t, http.MethodPost, "/signup/confirm", "", map[string]string{
		"email": "carol@example.com", "code": code,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm returned %d: %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/signin", "", map[string]string{
		"email": "carol@example.com", "password": "Passw0rdok",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signin returned %d: %s", w.Code, w.Body.String())
	}
}

func TestSignUp_WeakPassword(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email": "carol@example.com", "password": "weak",
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCatalogEndpoints(t *testing.T) {
	e := newTestEnv(t)
	admin := e.seedAccount(t, "admin@example.com", "Adminpass1", domain.RoleAdmin)
	user := e.seedAccount(t, "alice@example.com", "Userpass1", domain.RoleUser)

	// Non-admin create is refused.
	w := e.do(t, http.MethodPost, "/categories", user, map[string]string{"name": "Electronics"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-admin, got %d", w.Code)
	}

	w = e.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Electronics"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create category returned %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Result domain.Category `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	// Duplicate name gets the fixed 406.
	w = e.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Electronics"}, nil)
	if w.Code != http.StatusNotAcceptable {
		t.Fatalf("expected 406, got %d", w.Code)
	}
	if got := message(t, w); got != "Category Exist!!!" {
		t.Errorf("unexpected message %q", got)
	}

	w = e.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Widget", "unitPrice": "9.99", "category": created.Result.ID, "remainAmount": 5,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create product returned %d: %s", w.Code, w.Body.String())
	}
	var productResp struct {
		Product domain.Product `json:"product"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &productResp); err != nil {
		t.Fatalf("decode product: %v", err)
	}

	// The category listing now carries the member name.
	w = e.do(t, http.MethodGet, "/categories/"+created.Result.ID, user, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get category returned %d", w.Code)
	}
	var fetched struct {
		Result domain.Category `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode category: %v", err)
	}
	if len(fetched.Result.Products) != 1 || fetched.Result.Products[0] != "Widget" {
		t.Errorf("expected members [Widget], got %v", fetched.Result.Products)
	}

	w = e.do(t, http.MethodGet, "/products/"+productResp.Product.ID, user, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get product returned %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/products/no-such-id", user, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if got := message(t, w); got != "Product Not Found" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestOrderEndpoints(t *testing.T) {
	e := newTestEnv(t)
	admin := e.seedAccount(t, "admin@example.com", "Adminpass1", domain.RoleAdmin)
	alice := e.seedAccount(t, "alice@example.com", "Userpass1", domain.RoleUser)
	bob := e.seedAccount(t, "bob@example.com", "Userpass1", domain.RoleUser)

	w := e.do(t, http.MethodPost, "/categories", admin, map[string]string{"name": "Electronics"}, nil)
	var category struct {
		Result domain.Category `json:"result"`
	}
	json.Unmarshal(w.Body.Bytes(), &category)

	w = e.do(t, http.MethodPost, "/products", admin, map[string]any{
		"name": "Widget", "unitPrice": "10", "category": category.Result.ID, "remainAmount": 5,
	}, nil)
	var product struct {
		Product domain.Product `json:"product"`
	}
	json.Unmarshal(w.Body.Bytes(), &product)

	cart := []map[string]any{{"product": product.Product.ID, "amount": 3}}

	w = e.do(t, http.MethodPost, "/orders", alice, cart, map[string]string{"X-Request-ID": "req-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("submit order returned %d: %s", w.Code, w.Body.String())
	}
	var placed struct {
		Order domain.Order `json:"order"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if placed.Order.Total.String() != "30" {
		t.Errorf("expected total 30, got %s", placed.Order.Total)
	}

	// Same request id again is a duplicate.
	w = e.do(t, http.MethodPost, "/orders", alice, cart, map[string]string{"X-Request-ID": "req-1"})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d: %s", w.Code, w.Body.String())
	}

	// Remaining stock is 2; another cart of 3 must report the shortfall.
	w = e.do(t, http.MethodPost, "/orders", alice, cart, map[string]string{"X-Request-ID": "req-2"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for shortfall, got %d: %s", w.Code, w.Body.String())
	}
	if got := message(t, w); got != "Widget only remains 2" {
		t.Errorf("unexpected message %q", got)
	}

	// Reads are owner-scoped.
	w = e.do(t, http.MethodGet, "/orders/"+placed.Order.ID, alice, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner get returned %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/orders/"+placed.Order.ID, bob, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stranger, got %d", w.Code)
	}
	if got := message(t, w); got != "Order only can be deleted by owner" {
		t.Errorf("unexpected message %q", got)
	}

	w = e.do(t, http.MethodDelete, fmt.Sprintf("/orders/%s", placed.Order.ID), bob, nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stranger delete, got %d", w.Code)
	}
	w = e.do(t, http.MethodDelete, fmt.Sprintf("/orders/%s", placed.Order.ID), alice, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner delete returned %d: %s", w.Code, w.Body.String())
	}
}

func TestSubmitOrder_UnknownProduct(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedAccount(t, "alice@example.com", "Userpass1", domain.RoleUser)

	w := e.do(t, http.MethodPost, "/orders", alice, []map[string]any{
		{"product": "no-such-id", "amount": 1},
	}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if got := message(t, w); got != "Product Not Found" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestSubmitOrder_MalformedBody(t *testing.T) {
	e := newTestEnv(t)
	alice := e.seedAccount(t, "alice@example.com", "Userpass1", domain.RoleUser)

	// The cart must be a bare array of lines.
	w := e.do(t, http.MethodPost, "/orders", alice, map[string]any{"product": "p1"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
