package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderbot-backend/internal/cart"
	"github.com/angelmondragon/orderbot-backend/internal/catalog"
	"github.com/angelmondragon/orderbot-backend/internal/checkout"
	"github.com/angelmondragon/orderbot-backend/internal/customers"
	"github.com/angelmondragon/orderbot-backend/internal/orders"
	"github.com/angelmondragon/orderbot-backend/internal/pricing"
	pkgAuth "github.com/angelmondragon/orderbot-backend/pkg/auth"
	"github.com/angelmondragon/orderbot-backend/pkg/config"
	"github.com/angelmondragon/orderbot-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderbot-backend/pkg/db/models"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/metrics"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
	"github.com/angelmondragon/orderbot-backend/pkg/redis"
	"github.com/angelmondragon/orderbot-backend/pkg/security"
)

const (
	customerChat int64 = 101
	adminChat    int64 = 900
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type routerFixture struct {
	handler  http.Handler
	cfg      *config.Config
	conn     *gorm.DB
	pizza    models.Product
	pickup   models.DeliveryType
	delivery models.DeliveryType
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		Orders: config.OrdersConfig{
			FreeDeliveryThreshold: "1000",
			HistoryWindowDays:     2,
			HistoryLimit:          10,
		},
	}
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	cfg := testConfig()
	client := dbtest.Open(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})

	category := dbtest.SeedCategory(t, conn, "Pizza")
	pizza := dbtest.SeedProduct(t, conn, category.ID, "Margherita", "500.00")
	delivery := dbtest.SeedDeliveryType(t, conn, "Delivery", "150.00", true)
	pickup := dbtest.SeedDeliveryType(t, conn, "Pickup", "0", false)

	reg := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(reg)

	customerSvc, err := customers.NewService(customers.ServiceParams{
		Repo:   customers.NewRepository(conn),
		Tx:     client,
		Logger: logg,
		Hasher: security.NewHasher(config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		}),
	})
	require.NoError(t, err)
	created, err := customerSvc.BootstrapAdmin(context.Background(), adminChat, "secret-pass")
	require.NoError(t, err)
	require.True(t, created)

	catalogRepo := catalog.NewRepository(conn)
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	require.NoError(t, err)
	resolver, err := pricing.NewResolver(cfg.Orders.FreeDeliveryThreshold)
	require.NoError(t, err)
	ledger := orders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Ledger:        ledger,
		Customers:     customerSvc,
		Products:      func(tx *gorm.DB) cart.ProductFinder { return catalog.NewRepository(tx) },
		DeliveryTypes: catalogSvc,
		Pricing:       resolver,
		Tx:            client,
		Metrics:       orderMetrics,
		Logger:        logg,
	})
	require.NoError(t, err)

	drafts, err := checkout.NewDraftStore(newMemoryKV(), time.Minute)
	require.NoError(t, err)
	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Ledger:        ledger,
		Customers:     customerSvc,
		DeliveryTypes: catalogSvc,
		Drafts:        drafts,
		Pricing:       resolver,
		Tx:            client,
		Outbox:        emitter,
		Metrics:       orderMetrics,
		Logger:        logg,
		Location:      time.UTC,
	})
	require.NoError(t, err)

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:                ledger,
		Customers:           customerSvc,
		Tx:                  client,
		Outbox:              emitter,
		Metrics:             orderMetrics,
		Logger:              logg,
		Location:            time.UTC,
		HistoryWindowDays:   cfg.Orders.HistoryWindowDays,
		HistoryLimit:        cfg.Orders.HistoryLimit,
		AllowCustomerCancel: true,
	})
	require.NoError(t, err)

	handler := NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		customerSvc,
		catalogSvc,
		cartSvc,
		checkoutSvc,
		ordersSvc,
	)
	return routerFixture{
		handler:  handler,
		cfg:      cfg,
		conn:     conn,
		pizza:    pizza,
		pickup:   pickup,
		delivery: delivery,
	}
}

func (f routerFixture) token(t *testing.T, chatID int64) string {
	t.Helper()
	token, err := pkgAuth.MintChatToken(f.cfg.JWT, time.Now(), pkgAuth.ChatTokenPayload{ChatID: chatID, Transport: "telegram"})
	require.NoError(t, err)
	return token
}

func (f routerFixture) do(t *testing.T, method, path string, chatID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if chatID != 0 {
		req.Header.Set("Authorization", "Bearer "+f.token(t, chatID))
	}
	resp := httptest.NewRecorder()
	f.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope.Data
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope.Error.Code
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodGet, "/health/live", 0, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodGet, "/health/ready", 0, nil)
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/metrics", 0, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAPIRequiresChatToken(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodGet, "/api/v1/categories", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code, "expected 401 without token")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 with malformed token")

	resp = f.do(t, http.MethodGet, "/api/v1/categories", customerChat, nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUnregisteredCustomerCannotShop(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodGet, "/api/v1/customers/me", customerChat, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/cart/items", customerChat, map[string]any{"product_id": f.pizza.ID})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCustomerOrderFlow(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodPost, "/api/v1/customers", customerChat, map[string]any{"name": "Ann", "phone": "+79990000000"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodPost, "/api/v1/customers", customerChat, map[string]any{"name": "Ann", "phone": "+79990000000"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", f.pizza.ID), customerChat, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "Margherita", decodeData(t, resp)["name"])

	resp = f.do(t, http.MethodPost, "/api/v1/cart/items", customerChat, map[string]any{"product_id": f.pizza.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "1000", decodeData(t, resp)["cart_total"])

	resp = f.do(t, http.MethodPut, fmt.Sprintf("/api/v1/cart/items/%d", f.pizza.ID), customerChat, map[string]any{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_QUANTITY", decodeErrorCode(t, resp))

	resp = f.do(t, http.MethodPost, "/api/v1/checkout", customerChat, map[string]any{
		"delivery_type_id": f.delivery.ID,
		"time":             "ASAP",
		"consent":          true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code, "delivery needs an address")

	resp = f.do(t, http.MethodPost, "/api/v1/checkout", customerChat, map[string]any{
		"delivery_type_id": f.pickup.ID,
		"time":             "asap",
		"consent":          true,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	confirmation := decodeData(t, resp)
	assert.Equal(t, "PLACED", confirmation["status"])
	assert.Equal(t, "1000", confirmation["total"])
	assert.Equal(t, true, confirmation["deliver_asap"])
	orderID := int64(confirmation["order_id"].(float64))

	resp = f.do(t, http.MethodGet, "/api/v1/cart", customerChat, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Empty(t, decodeData(t, resp)["items"])

	resp = f.do(t, http.MethodGet, "/api/v1/orders/latest-status", customerChat, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "PLACED", decodeData(t, resp)["status"])

	resp = f.do(t, http.MethodGet, "/api/v1/orders?window_days=31", customerChat, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/orders/"+strconv.FormatInt(orderID, 10)+"/cancel", customerChat, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var stored models.Order
	require.NoError(t, f.conn.First(&stored, orderID).Error)
	assert.Equal(t, "CANCELLED", string(stored.Status))
}

func TestCheckoutDraftWizard(t *testing.T) {
	f := newRouterFixture(t)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/customers", customerChat, map[string]any{"name": "Ann", "phone": "+7"}).Code)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/cart/items", customerChat, map[string]any{"product_id": f.pizza.ID}).Code)

	resp := f.do(t, http.MethodPatch, "/api/v1/checkout/draft", customerChat, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPatch, "/api/v1/checkout/draft", customerChat, map[string]any{"time": "25:99"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPatch, "/api/v1/checkout/draft", customerChat, map[string]any{"delivery_type_id": f.delivery.ID})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, checkout.StepAddress, decodeData(t, resp)["next_step"])

	resp = f.do(t, http.MethodPatch, "/api/v1/checkout/draft", customerChat, map[string]any{"address": "Main st 1", "time": "ASAP", "consent": true})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, checkout.StepReady, decodeData(t, resp)["next_step"])

	resp = f.do(t, http.MethodPost, "/api/v1/checkout/draft/submit", customerChat, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "650", decodeData(t, resp)["total"])

	resp = f.do(t, http.MethodDelete, "/api/v1/checkout/draft", customerChat, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestAdminRoutesRequireAdministrator(t *testing.T) {
	f := newRouterFixture(t)

	resp := f.do(t, http.MethodGet, "/api/v1/admin/orders/today", customerChat, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/login", adminChat, map[string]any{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/login", adminChat, map[string]any{"password": "secret-pass"})
	assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodPost, "/api/v1/admin/register", customerChat, map[string]any{"registration_password": "x", "password": "another"})
	assert.Equal(t, http.StatusForbidden, resp.Code, "registration is closed once an administrator exists")

	resp = f.do(t, http.MethodGet, "/api/v1/admin/orders/today", adminChat, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = f.do(t, http.MethodPost, "/api/v1/admin/products", adminChat, map[string]any{
		"category_id": f.pizza.CategoryID,
		"name":        "Pepperoni",
		"price":       "640.50",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/admin/products/%d", f.pizza.ID), adminChat, nil)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", f.pizza.ID), customerChat, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAdminSetsOrderStatus(t *testing.T) {
	f := newRouterFixture(t)

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/customers", customerChat, map[string]any{"name": "Ann", "phone": "+7"}).Code)
	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/api/v1/cart/items", customerChat, map[string]any{"product_id": f.pizza.ID}).Code)
	resp := f.do(t, http.MethodPost, "/api/v1/checkout", customerChat, map[string]any{"delivery_type_id": f.pickup.ID, "time": "ASAP", "consent": true})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	orderID := int64(decodeData(t, resp)["order_id"].(float64))
	path := fmt.Sprintf("/api/v1/admin/orders/%d/status", orderID)

	resp = f.do(t, http.MethodPut, path, adminChat, map[string]any{"status": "SHIPPED"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPut, path, adminChat, map[string]any{"status": "CART"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.do(t, http.MethodPut, path, customerChat, map[string]any{"status": "PREPARING"})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = f.do(t, http.MethodPut, path, adminChat, map[string]any{"status": "PREPARING"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = f.do(t, http.MethodGet, "/api/v1/orders/latest-status", customerChat, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "PREPARING", decodeData(t, resp)["status"])
}

type memoryKV struct {
	values map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}}
}

func (m *memoryKV) CheckoutDraftKey(chatID int64) string {
	return "checkout:" + strconv.FormatInt(chatID, 10)
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryKV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}
