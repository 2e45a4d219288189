package controller

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"countdown_timer_v1/internal/cache"
	"countdown_timer_v1/internal/metrics"
	"countdown_timer_v1/internal/middleware"
	"countdown_timer_v1/internal/model"
	"countdown_timer_v1/internal/repository"
	"countdown_timer_v1/internal/service"
	"countdown_timer_v1/internal/testutil"
	"countdown_timer_v1/pkg/shopify"
	"countdown_timer_v1/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testDomain    = "demo.myshopify.com"
	testAPIKey    = "key123"
	testAPISecret = "shpss_test_secret"
)

// ==================== 测试环境 ====================

type ctlEnv struct {
	db     *gorm.DB
	shop   *model.Shop
	shops  *service.ShopService
	timers *service.TimerService
	front  *service.StorefrontService
	client *shopify.Client
	router *gin.Engine
}

// newCtlEnv 真实 Service + 内存 SQLite，路由与生产一致
func newCtlEnv(t *testing.T, opts ...shopify.Option) *ctlEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	m := metrics.New()
	timerRepo := repository.NewTimerRepository(db)
	shops := service.NewShopService(repository.NewShopRepository(db), cache.NewNoopShopCache(), zerolog.Nop())
	rules := service.NewRuleEngine(timerRepo, shops, model.MaxTimersPerShop, m)

	env := &ctlEnv{
		db:     db,
		shop:   testutil.SeedShop(t, db, testDomain),
		shops:  shops,
		timers: service.NewTimerService(timerRepo, rules, zerolog.Nop()),
		front:  service.NewStorefrontService(timerRepo, shops, m, zerolog.Nop()),
		client: shopify.NewClient(shopify.Config{
			APIKey:      testAPIKey,
			APISecret:   testAPISecret,
			Scopes:      "read_themes,write_script_tags",
			RedirectURL: "https://app.example.com/api/v1/auth/callback",
		}, zerolog.Nop(), opts...),
	}

	auth := service.NewAuthService(shops, env.client, utils.NewStateStore(time.Minute), service.AuthOptions{
		FrontendHost: "https://admin.example.com/app",
	}, zerolog.Nop())

	timerCtl := NewTimerController(env.timers)
	storefrontCtl := NewStorefrontController(env.front)
	authCtl := NewAuthController(auth)
	webhookCtl := NewWebhookController(env.client, shops)
	healthCtl := NewHealthController(db)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(zerolog.Nop()))
	r.GET("/health", healthCtl.Check)
	api := r.Group("/api/v1")
	api.GET("/auth", authCtl.Install)
	api.GET("/auth/callback", authCtl.Callback)
	api.POST("/webhooks/app-uninstalled", webhookCtl.AppUninstalled)
	api.GET("/storefront-timer", storefrontCtl.GetTimer)

	timers := api.Group("/countdown-timer", middleware.ShopDomain())
	timers.GET("", timerCtl.List)
	timers.POST("", timerCtl.Create)
	timers.GET("/total", timerCtl.Counts)
	timers.GET("/:id", timerCtl.GetDetail)
	timers.PUT("/:id", timerCtl.Edit)
	timers.PATCH("/:id", timerCtl.Toggle)
	timers.POST("/:id/force-activate", timerCtl.ForceActivate)
	timers.DELETE("/:id", timerCtl.Delete)

	env.router = r
	return env
}

// do 发起请求，shop 非空时带 X-Shop-Domain
func (e *ctlEnv) do(t *testing.T, method, path, shop string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if shop != "" {
		req.Header.Set(middleware.HeaderShopDomain, shop)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// signWebhook Shopify webhook 签名：base64(HMAC-SHA256(body))
func signWebhook(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testAPISecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func postWebhook(t *testing.T, e *ctlEnv, body []byte, signature, shopHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/app-uninstalled", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Hmac-Sha256", signature)
	if shopHeader != "" {
		req.Header.Set(HeaderShopifyShopDomain, shopHeader)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
