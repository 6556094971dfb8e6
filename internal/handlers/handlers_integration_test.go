package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aralis/internal/cache"
	"aralis/internal/database"
	"aralis/internal/handlers"
	"aralis/internal/mailer"
	"aralis/internal/metrics"
	"aralis/internal/models"
	"aralis/internal/notifications"
	"aralis/internal/repositories"
	"aralis/internal/services"
)

const (
	testPassword  = "Sup3r$ecret"
	otherPassword = "N3w#Passw0rd"
)

// outbox records every email the app sends.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(template string) (mailer.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Template == template {
			return o.sent[i], true
		}
	}
	return mailer.Message{}, false
}

type testEnv struct {
	app         *fiber.App
	authService *services.AuthService
	users       repositories.UserRepository
	products    repositories.ProductRepository
	outbox      *outbox
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String()), nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	resetRepo := repositories.NewGORMPasswordResetRepository(db)
	customizationRepo := repositories.NewGORMCustomizationRepository(db)

	met := metrics.NewUnregistered()
	box := &outbox{}
	notifier, err := notifications.New(box, notifications.Config{
		ShopEmail:   "pedidos@aralis.store",
		FrontendURL: "http://localhost:3000",
	}, met, logger)
	require.NoError(t, err)

	authService := services.NewAuthService(userRepo, "test_jwt_secret", time.Hour, logger)
	cartService := services.NewCartService(productRepo)
	allocator := services.NewOrderNumberAllocator(orderRepo, "ARL", 10, met, logger)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(logger)})
	handlers.RegisterRoutes(app.Group("/api/v1"), handlers.Services{
		Auth:          authService,
		PasswordReset: services.NewPasswordResetService(userRepo, resetRepo, notifier, time.Hour, met, logger),
		Account:       services.NewAccountService(userRepo, notifier, logger),
		Products:      services.NewProductService(productRepo, cache.NoopStore{}, time.Minute, logger),
		Cart:          cartService,
		Orders:        services.NewOrderService(orderRepo, cartService, allocator, nil, notifier, 3, met, logger),
		Customization: services.NewCustomizationService(customizationRepo, notifier, met, logger),
	})

	return &testEnv{app: app, authService: authService, users: userRepo, products: productRepo, outbox: box}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	status, raw := e.doRaw(t, method, path, token, body)
	var out map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return status, out
}

func (e *testEnv) doRaw(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) register(t *testing.T, name, email string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["token"].(string)
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	admin := &models.User{ID: uuid.New().String(), Name: "Admin", Email: "admin@aralis.store", Password: hash, Role: models.RoleAdmin}
	require.NoError(t, e.users.Create(admin))
	token, err := e.authService.IssueToken(admin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) createProduct(t *testing.T, adminToken string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/v1/admin/products", adminToken, map[string]interface{}{
		"sku": "VL-01", "name": "Vestido Lino", "category": "vestidos", "price": "59.90",
		"colors": []string{"arena"}, "sizes": []string{"S", "M"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Ana", "ana@example.com")
	assert.NotEmpty(t, token)

	status, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ana", "email": "ana@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "conflict", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Luz", "email": "luz@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["details"], "password")

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": testPassword,
	})
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body["user"], "password")

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "Wr0ng!pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAccountRoutes(t *testing.T) {
	env := setupApp(t)
	token := env.register(t, "Ana", "ana@example.com")

	status, _ := env.do(t, http.MethodGet, "/api/v1/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := env.do(t, http.MethodGet, "/api/v1/account", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ana@example.com", body["email"])

	status, body = env.do(t, http.MethodPut, "/api/v1/account", token, map[string]string{
		"name": "Ana María", "email": "ana@example.com", "phone": "+56 9 1234 5678",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ana María", body["user"].(map[string]interface{})["name"])

	status, _ = env.do(t, http.MethodPut, "/api/v1/account/password", token, map[string]string{
		"current_password": testPassword, "new_password": otherPassword,
	})
	assert.Equal(t, http.StatusOK, status)
	_, ok := env.outbox.last(notifications.TemplatePasswordChanged)
	assert.True(t, ok)
}

var tokenPattern = regexp.MustCompile(`token=([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	env := setupApp(t)
	env.register(t, "Ana", "ana@example.com")

	status, unknown := env.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusOK, status)
	status, known := env.do(t, http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{"email": "ana@example.com"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, unknown["message"], known["message"])

	msg, ok := env.outbox.last(notifications.TemplatePasswordReset)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", msg.To)
	match := tokenPattern.FindStringSubmatch(msg.Text)
	require.Len(t, match, 2)
	token := match[1]

	status, body := env.do(t, http.MethodGet, "/api/v1/auth/reset-password/validate?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"token": token, "password": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "weak_password", body["details"].(map[string]interface{})["reason"])

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"token": token, "password": testPassword})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "unchanged", body["details"].(map[string]interface{})["reason"])

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"token": token, "password": otherPassword})
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{"token": token, "password": "An0ther!Pass"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "used", body["details"].(map[string]interface{})["reason"])

	status, _ = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "ana@example.com", "password": otherPassword})
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/api/v1/auth/reset-password/validate?token=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid", body["details"].(map[string]interface{})["reason"])
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := setupApp(t)
	customer := env.register(t, "Ana", "ana@example.com")

	status, _ := env.do(t, http.MethodGet, "/api/v1/admin/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, body := env.do(t, http.MethodGet, "/api/v1/admin/orders", customer, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", body["error"])

	status, _ = env.do(t, http.MethodGet, "/api/v1/admin/orders", env.adminToken(t), nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestCatalogRoutes(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)
	id := env.createProduct(t, admin)

	status, raw := env.doRaw(t, http.MethodGet, "/api/v1/products?category=vestidos", "", nil)
	assert.Equal(t, http.StatusOK, status)
	var products []models.Product
	require.NoError(t, json.Unmarshal(raw, &products))
	require.Len(t, products, 1)
	assert.Equal(t, "vestido-lino", products[0].Slug)

	status, body := env.do(t, http.MethodGet, "/api/v1/products/vestido-lino", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["id"])

	status, _ = env.do(t, http.MethodPost, "/api/v1/admin/products", admin, map[string]interface{}{
		"sku": "VL-01", "name": "Vestido Copia", "category": "vestidos", "price": "10",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, http.MethodPut, "/api/v1/admin/products/"+id, admin, map[string]interface{}{
		"sku": "VL-01", "name": "Vestido Lino", "category": "vestidos", "price": "64.90", "active": false,
	})
	assert.Equal(t, http.StatusOK, status, body)
	status, _ = env.do(t, http.MethodGet, "/api/v1/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/api/v1/admin/products/"+id, admin, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(t, http.MethodGet, "/api/v1/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCheckoutAndOrderLifecycle(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)
	productID := env.createProduct(t, admin)
	customer := env.register(t, "Ana", "ana@example.com")

	items := []map[string]interface{}{{"product_id": productID, "quantity": 2, "color": "arena", "size": "M"}}

	status, quote := env.do(t, http.MethodPost, "/api/v1/cart/quote", "", map[string]interface{}{"items": items})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "119.8", quote["total"])

	status, body := env.do(t, http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"items": items, "customer_name": "Ana", "customer_email": "ana@example.com",
		"customer_phone": "+56 9 1234 5678",
	})
	assert.Equal(t, http.StatusBadRequest, status, "delivery address is required")

	status, body = env.do(t, http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"items": items, "customer_name": "Ana", "customer_email": "ana@example.com",
		"customer_phone": "+56 9 1234 5678", "delivery_address": "Av. Siempre Viva 742",
	})
	require.Equal(t, http.StatusCreated, status, body)
	order := body["order"].(map[string]interface{})
	number := order["order_number"].(string)
	assert.Regexp(t, `^ARL-\d{8}$`, number)
	assert.NotEmpty(t, order["user_id"])

	_, ok := env.outbox.last(notifications.TemplateOrderConfirmation)
	assert.True(t, ok)
	alert, ok := env.outbox.last(notifications.TemplateOrderAlert)
	require.True(t, ok)
	assert.Equal(t, "pedidos@aralis.store", alert.To)

	status, _ = env.do(t, http.MethodPost, "/api/v1/orders", "", map[string]interface{}{
		"items": items, "customer_name": "Luz", "customer_email": "luz@example.com",
		"customer_phone": "123", "pickup": true,
	})
	assert.Equal(t, http.StatusCreated, status)

	status, raw := env.doRaw(t, http.MethodGet, "/api/v1/orders/mine", customer, nil)
	assert.Equal(t, http.StatusOK, status)
	var mine []models.Order
	require.NoError(t, json.Unmarshal(raw, &mine))
	assert.Len(t, mine, 1)

	status, _ = env.do(t, http.MethodGet, "/api/v1/orders/track/"+number+"?email=ANA@example.com", "", nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, "/api/v1/orders/track/"+number+"?email=luz@example.com", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+number+"/status", admin, map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "confirmed", body["order"].(map[string]interface{})["status"])
	statusMail, ok := env.outbox.last(notifications.TemplateOrderStatus)
	require.True(t, ok)
	assert.Contains(t, statusMail.Subject, "Confirmado")

	status, _ = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+number+"/status", admin, map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodPatch, "/api/v1/admin/orders/"+number+"/status", admin, map[string]string{"status": "ready"})
	assert.Equal(t, http.StatusConflict, status)

	status, raw = env.doRaw(t, http.MethodGet, "/api/v1/admin/orders?status=pending", admin, nil)
	assert.Equal(t, http.StatusOK, status)
	var pending []models.Order
	require.NoError(t, json.Unmarshal(raw, &pending))
	assert.Len(t, pending, 1)

	status, stats := env.do(t, http.MethodGet, "/api/v1/admin/stats", admin, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 2, stats["total_orders"])
	assert.Equal(t, "119.8", stats["revenue"])

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-expired", "email": "ana@example.com", "role": models.RoleUser,
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)

	for name, bearer := range map[string]string{"malformed": "not-a-jwt", "expired": expired} {
		status, body = env.do(t, http.MethodPost, "/api/v1/orders", bearer, map[string]interface{}{
			"items": items, "customer_name": "Ana", "customer_email": "ana@example.com",
			"customer_phone": "123", "pickup": true,
		})
		require.Equal(t, http.StatusCreated, status, "%s bearer: %v", name, body)
		assert.Empty(t, body["order"].(map[string]interface{})["user_id"], "%s bearer", name)
	}

	status, raw = env.doRaw(t, http.MethodGet, "/api/v1/orders/mine", customer, nil)
	assert.Equal(t, http.StatusOK, status)
	mine = nil
	require.NoError(t, json.Unmarshal(raw, &mine))
	assert.Len(t, mine, 1)
}

func TestCustomizationRoutes(t *testing.T) {
	env := setupApp(t)
	admin := env.adminToken(t)

	status, body := env.do(t, http.MethodPost, "/api/v1/customizations", "", map[string]interface{}{
		"name": "Luz", "email": "luz@example.com", "garment_type": "chaqueta",
		"description": "Chaqueta de mezclilla con bordado floral", "colors": []string{"azul"},
	})
	require.Equal(t, http.StatusCreated, status, body)
	id := body["request"].(map[string]interface{})["id"].(string)

	status, _ = env.do(t, http.MethodPost, "/api/v1/customizations", "", map[string]interface{}{"name": "Luz"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPatch, "/api/v1/admin/customizations/"+id+"/status", admin, map[string]string{"status": "contacted"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "contacted", body["status"])

	status, raw := env.doRaw(t, http.MethodGet, "/api/v1/admin/customizations?status=contacted", admin, nil)
	assert.Equal(t, http.StatusOK, status)
	var list []models.CustomizationRequest
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list, 1)
}
