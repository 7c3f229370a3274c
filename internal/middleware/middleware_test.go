package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/01moynul/farmers-market-api/internal/auth"
	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func authRouter(tokens *auth.Manager) *gin.Engine {
	r := gin.New()
	r.GET("/protected", Auth(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64(ContextUserID)})
	})
	r.GET("/admin", Auth(tokens), Admin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequiresToken(t *testing.T) {
	r := authRouter(auth.NewManager("secret", time.Hour))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access Denied. No token provided.", message(t, w))
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	r := authRouter(auth.NewManager("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsForgedToken(t *testing.T) {
	r := authRouter(auth.NewManager("secret", time.Hour))
	forged, err := auth.NewManager("other", time.Hour).GenerateToken(1, "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	w := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token.", message(t, w))
}

func TestAuthAttachesClaims(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	r := authRouter(tokens)
	token, err := tokens.GenerateToken(7, "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":7}`, w.Body.String())
}

func TestAdminGuard(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	r := authRouter(tokens)

	userToken, err := tokens.GenerateToken(7, "user")
	require.NoError(t, err)
	adminToken, err := tokens.GenerateToken(1, "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access Denied. Admin privileges required.", message(t, w))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w = serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAdminWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", Admin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"api error", NewAPIError(http.StatusNotFound, "Farmer not found", store.ErrNotFound), http.StatusNotFound},
		{"not found", fmt.Errorf("wrapped: %w", store.ErrNotFound), http.StatusNotFound},
		{"empty update", store.ErrEmptyUpdate, http.StatusBadRequest},
		{"duplicate", fmt.Errorf("could not create farmer: %w", &mysql.MySQLError{Number: 1062}), http.StatusConflict},
		{"missing parent", &mysql.MySQLError{Number: 1452}, http.StatusBadRequest},
		{"still referenced", &mysql.MySQLError{Number: 1451}, http.StatusConflict},
		{"other mysql", &mysql.MySQLError{Number: 1205}, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := Classify(tc.err)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestErrorHandlerHidesInternalDetail(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("dial tcp 10.0.0.5:3306: connection refused"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", message(t, w))
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestErrorHandlerSkipsWrittenResponses(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusTeapot, gin.H{"message": "short and stout"})
		_ = c.Error(errors.New("ignored"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/written", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "short and stout", message(t, w))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("nil map") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", message(t, w))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.001, 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0, 0))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/api/farmers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/farmers/1", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/farmers/2", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/farmers/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))

	expected := `
# HELP http_requests_total HTTP requests served, by method, route and status.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="/api/farmers/:id",status="200"} 2
http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}
