package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"membership-platform/backend/pkg/config"
	"membership-platform/backend/pkg/di"
	"membership-platform/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupRouter(t *testing.T, tune func(*config.Config)) *Router {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("VAULT_ENABLED", "false")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	cfg := config.Load()
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Security.AllowedOrigins = []string{"https://app.example.com"}
	if tune != nil {
		tune(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	container, err := di.New(ctx, cfg, db, logger.Discard())
	require.NoError(t, err)
	container.MetricsHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	r := New(ctx, container)
	r.SetupRoutes()
	return r
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

func TestRoutes(t *testing.T) {
	r := setupRouter(t, nil)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		header   map[string]string
		wantCode int
		wantErr  string
	}{
		{name: "liveness", method: http.MethodGet, path: "/health", wantCode: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK},
		{name: "chat without session", method: http.MethodPost, path: "/api/chat", body: `{"conversationId":"c","message":"hi"}`, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "versioned chat without session", method: http.MethodPost, path: "/api/v1/chat", body: `{}`, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "chat with forged token", method: http.MethodPost, path: "/api/chat", body: `{}`, header: map[string]string{"Authorization": "Bearer not-a-jwt"}, wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "me without session", method: http.MethodGet, path: "/api/auth/me", wantCode: http.StatusUnauthorized, wantErr: "UNAUTHORIZED"},
		{name: "signup with bad body", method: http.MethodPost, path: "/api/v1/auth/signup", body: `{"email":"nope"}`, wantCode: http.StatusBadRequest, wantErr: "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.Engine.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorCode(t, w))
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.Engine.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestChatIsRateLimitedPerUser(t *testing.T) {
	r := setupRouter(t, func(cfg *config.Config) {
		cfg.Security.RateLimit = 0.001
		cfg.Security.RateLimitBurst = 1
	})

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.Engine.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send("a").Code)

	w := send("a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// an unverified token cannot open a fresh bucket
	assert.Equal(t, http.StatusTooManyRequests, send("b").Code)

	// a signed session token is limited per user
	tok, err := r.Container.JWTService.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, http.StatusTooManyRequests, send(tok).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(tok).Code)
}

func TestUnknownQuotaBackendFailsContainer(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	cfg := config.Load()
	cfg.Quota.Backend = "memcached"
	_, err = di.New(context.Background(), cfg, db, logger.Discard())
	assert.Error(t, err)
}
