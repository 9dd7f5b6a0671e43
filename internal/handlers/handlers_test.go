package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/example/marque/internal/config"
	"github.com/example/marque/internal/database"
	"github.com/example/marque/internal/market"
	"github.com/example/marque/internal/models"
	"github.com/example/marque/internal/routes"
	"github.com/example/marque/internal/services"
)

func newTestApp(t *testing.T) (*fiber.App, *database.Manager) {
	t.Helper()

	open := func() *gorm.DB {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		require.NoError(t, err)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		sqlDB.SetMaxOpenConns(1)
		require.NoError(t, database.Migrate(db))
		return db
	}

	dbm := database.NewWithConnections(map[market.Market]*gorm.DB{
		market.KG: open(),
		market.US: open(),
	})
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		TokenExpires:      time.Hour,
		MaxSendAttempts:   3,
		SendAttemptWindow: 15 * time.Minute,
	}
	log := zap.NewNop()
	sms := services.NewSMSService("", "", log)
	limiter := services.NewLimiter(nil, cfg.MaxSendAttempts, cfg.SendAttemptWindow)
	authSvc := services.NewAuthService(dbm, cfg, sms, limiter, log)

	app := fiber.New()
	routes.Register(app, dbm, cfg, authSvc)
	return app, dbm
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
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
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]interface{}
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func authenticate(t *testing.T, app *fiber.App, phone string) string {
	t.Helper()

	status, sent := doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{"phone": phone}, nil)
	require.Equal(t, http.StatusOK, status)
	code, _ := sent["fallback_code"].(string)
	require.NotEmpty(t, code)

	status, verified := doJSON(t, app, http.MethodPost, "/api/auth/verify-code",
		fiber.Map{"phone": phone, "code": code}, nil)
	require.Equal(t, http.StatusOK, status)
	token, _ := verified["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestSendCodeEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{"phone": "+996 555 123 456"}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kg", body["market"])
	assert.Equal(t, "ru", body["language"])
	assert.Equal(t, float64(10), body["expires_in_minutes"])
	assert.Equal(t, "+996 555 123 456", body["phone"])

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{"phone": "+44 20 7946 0958"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSendCodeRateLimitEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	for i := 0; i < 3; i++ {
		status, _ := doJSON(t, app, http.MethodPost, "/api/auth/send-code",
			fiber.Map{"phone": "+996555123456"}, nil)
		require.Equal(t, http.StatusOK, status)
	}

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{"phone": "+996555123456"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func TestVerifyCodeEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	status, sent := doJSON(t, app, http.MethodPost, "/api/auth/send-code",
		fiber.Map{"phone": "+12125551234"}, nil)
	require.Equal(t, http.StatusOK, status)
	code := sent["fallback_code"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/verify-code",
		fiber.Map{"phone": "+12125551234", "code": "000000"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/auth/verify-code",
		fiber.Map{"phone": "+12125551234", "code": code}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "us", body["market"])
	assert.Equal(t, true, body["is_new_user"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "+12125551234", user["phone"])
	assert.Equal(t, true, user["is_verified"])
	assert.Equal(t, "en", user["language"])
}

func TestListMarketsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, http.MethodGet, "/api/auth/markets", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "kg", body["default_market"])

	markets := body["supported_markets"].([]interface{})
	require.Len(t, markets, 2)
	first := markets[0].(map[string]interface{})
	assert.Contains(t, first, "currency")
	assert.Contains(t, first, "tax_rate")
	assert.Contains(t, first, "payment_methods")
}

func TestProfileRequiresToken(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodGet, "/api/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodGet, "/api/profile", nil,
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileAndAddressesFlow(t *testing.T) {
	app, _ := newTestApp(t)
	token := authenticate(t, app, "+996555123456")
	auth := map[string]string{"Authorization": "Bearer " + token}

	status, body := doJSON(t, app, http.MethodGet, "/api/profile", nil, auth)
	require.Equal(t, http.StatusOK, status)
	profile := body["data"].(map[string]interface{})
	assert.Equal(t, "kg", profile["market"])
	assert.Equal(t, "сом", profile["currency"])

	status, _ = doJSON(t, app, http.MethodPut, "/api/profile",
		fiber.Map{"full_name": "Айдай Жумабекова"}, auth)
	require.Equal(t, http.StatusOK, status)

	status, created := doJSON(t, app, http.MethodPost, "/api/profile/addresses",
		fiber.Map{"address_line": "ул. Киевская 95", "city": "Бишкек"}, auth)
	require.Equal(t, http.StatusCreated, status)
	addressID := created["data"].(map[string]interface{})["id"].(string)

	status, _ = doJSON(t, app, http.MethodPut,
		fmt.Sprintf("/api/profile/addresses/%s/default", addressID), nil, auth)
	require.Equal(t, http.StatusOK, status)

	status, listed := doJSON(t, app, http.MethodGet, "/api/profile/addresses", nil, auth)
	require.Equal(t, http.StatusOK, status)
	addresses := listed["data"].([]interface{})
	require.Len(t, addresses, 1)
	assert.Equal(t, true, addresses[0].(map[string]interface{})["is_default"])
}

func TestCreateAddressPostalCodeRule(t *testing.T) {
	app, _ := newTestApp(t)
	token := authenticate(t, app, "+12125551234")
	auth := map[string]string{"Authorization": "Bearer " + token}

	status, _ := doJSON(t, app, http.MethodPost, "/api/profile/addresses",
		fiber.Map{"address_line": "350 5th Ave", "city": "New York", "state": "NY"}, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPaymentMethodKindRule(t *testing.T) {
	app, _ := newTestApp(t)
	token := authenticate(t, app, "+996555123456")
	auth := map[string]string{"Authorization": "Bearer " + token}

	status, _ := doJSON(t, app, http.MethodPost, "/api/profile/payment-methods",
		fiber.Map{"kind": "paypal"}, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, created := doJSON(t, app, http.MethodPost, "/api/profile/payment-methods",
		fiber.Map{"kind": "cash_on_delivery"}, auth)
	require.Equal(t, http.StatusCreated, status)
	method := created["data"].(map[string]interface{})
	assert.Equal(t, "Наличные при доставке", method["display_name"])
}

func TestOrderFlowAppliesMarketTax(t *testing.T) {
	app, dbm := newTestApp(t)
	token := authenticate(t, app, "+996555123456")
	auth := map[string]string{"Authorization": "Bearer " + token}

	product := models.Product{
		Name:     "Чайник",
		Slug:     "chainik",
		Price:    1000,
		InStock:  true,
		IsActive: true,
		Market:   "kg",
	}
	require.NoError(t, dbm.Session(market.KG).Create(&product).Error)

	status, created := doJSON(t, app, http.MethodPost, "/api/orders", fiber.Map{
		"payment_kind": "cash_on_delivery",
		"items": []fiber.Map{
			{"product_id": product.ID.String(), "quantity": 2},
		},
	}, auth)
	require.Equal(t, http.StatusCreated, status)

	order := created["data"].(map[string]interface{})
	assert.Equal(t, float64(2000), order["subtotal"])
	assert.Equal(t, 0.12, order["tax_rate"])
	assert.Equal(t, float64(240), order["tax_amount"])
	assert.Equal(t, float64(2240), order["total"])
	assert.Equal(t, "KGS", order["currency"])

	status, listed := doJSON(t, app, http.MethodGet, "/api/orders", nil, auth)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, listed["data"].([]interface{}), 1)
}

func TestCatalogScopedByMarketHeader(t *testing.T) {
	app, dbm := newTestApp(t)

	require.NoError(t, dbm.Session(market.KG).Create(&models.Product{
		Name: "Ковер", Slug: "kover", Price: 5000, InStock: true, IsActive: true, Market: "kg",
	}).Error)
	require.NoError(t, dbm.Session(market.US).Create(&models.Product{
		Name: "Rug", Slug: "rug", Price: 120, InStock: true, IsActive: true, Market: "us",
	}).Error)

	status, kg := doJSON(t, app, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, kg["data"].([]interface{}), 1)
	kgProduct := kg["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "5000 сом", kgProduct["formatted_price"])

	status, us := doJSON(t, app, http.MethodGet, "/api/products", nil,
		map[string]string{"X-Market": "us"})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, us["data"].([]interface{}), 1)
	usProduct := us["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "$120.00", usProduct["formatted_price"])
}
