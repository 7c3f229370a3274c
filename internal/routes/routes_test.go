package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/farmers-market-api/internal/auth"
	"github.com/01moynul/farmers-market-api/internal/handlers"
	"github.com/01moynul/farmers-market-api/internal/middleware"
	"github.com/01moynul/farmers-market-api/internal/models"
	"github.com/01moynul/farmers-market-api/internal/store/storetest"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type testServer struct {
	router *gin.Engine
	tokens *auth.Manager
	mem    *storetest.Memory
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mem := storetest.NewMemory()
	tokens := auth.NewManager("routes-secret", time.Hour)
	h := &handlers.Handlers{
		Farmers:  mem.Farmers(),
		Products: mem.Products(),
		Users:    mem.Users(),
		Tokens:   tokens,
		DB:       okPinger{},
		Log:      zap.NewNop(),
	}

	opts.Tokens = tokens
	opts.Log = zap.NewNop()
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	return &testServer{router: SetupRouter(h, opts), tokens: tokens, mem: mem}
}

func (s *testServer) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, userID int64, role string) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Message
}

func TestPingAndHealth(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.request(t, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	w = s.request(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.request(t, http.MethodGet, "/api/tractors", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", message(t, w))
}

func TestPublicReads(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/api/farmers", "/api/products"} {
		w := s.request(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `[]`, w.Body.String(), path)
	}
}

func TestWritesRequireToken(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.request(t, http.MethodPost, "/api/farmers", map[string]string{"name": "Ann", "email": "ann@farm.test"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access Denied. No token provided.", message(t, w))

	w = s.request(t, http.MethodPost, "/api/products", map[string]interface{}{"name": "Eggs", "price": 2}, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token.", message(t, w))

	other := auth.NewManager("someone-else", time.Hour)
	forged, err := other.GenerateToken(1, models.RoleAdmin)
	require.NoError(t, err)
	w = s.request(t, http.MethodPost, "/api/farmers", map[string]string{"name": "Ann", "email": "ann@farm.test"}, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Zero(t, s.mem.FarmerInserts)
	assert.Zero(t, s.mem.ProductInserts)
}

func TestDeleteNeedsAdmin(t *testing.T) {
	s := newTestServer(t, Options{})
	userToken := s.token(t, 7, models.RoleUser)
	adminToken := s.token(t, 1, models.RoleAdmin)

	w := s.request(t, http.MethodPost, "/api/farmers", map[string]string{"name": "Ann", "email": "ann@farm.test"}, userToken)
	require.Equal(t, http.StatusCreated, w.Code)
	var farmer models.Farmer
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &farmer))
	path := "/api/farmers/" + jsonID(farmer.ID)

	w = s.request(t, http.MethodDelete, path, nil, userToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access Denied. Admin privileges required.", message(t, w))

	w = s.request(t, http.MethodDelete, path, nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Farmer deleted successfully", message(t, w))

	w = s.request(t, http.MethodGet, path, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterLoginAndListUsers(t *testing.T) {
	s := newTestServer(t, Options{})

	w := s.request(t, http.MethodPost, "/api/users", map[string]string{
		"name": "Cleo", "email": "cleo@farm.test", "password": "correct horse",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "cleo@farm.test", "password": "correct horse",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = s.request(t, http.MethodGet, "/api/users", nil, login.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.request(t, http.MethodGet, "/api/users", nil, s.token(t, 99, models.RoleAdmin))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct horse")
	assert.NotContains(t, w.Body.String(), "password")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, Options{})
	s.request(t, http.MethodGet, "/api/products", nil, "")

	w := s.request(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/api/products",status="200"} 1`)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, Options{CORSOrigins: []string{"https://market.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://market.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://market.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "POST"))

	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimitRPS: 1, RateLimitBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.request(t, http.MethodGet, "/ping", nil, "").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestCorsConfigWildcard(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)
	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
