package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard-be/config"
	"taskboard-be/internal/handlers"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/models"
	"taskboard-be/internal/services"
	"taskboard-be/internal/testutil"
	"taskboard-be/internal/utils"

	"github.com/gin-gonic/gin"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func echoActor(c *gin.Context) {
	v, _ := c.Get(handlers.ActorKey)
	actor, _ := v.(models.Actor)
	c.JSON(http.StatusOK, actor)
}

type failingResolver struct{ err error }

func (r failingResolver) ResolveActor(ctx context.Context, token, secret string) (models.Actor, error) {
	return models.Actor{}, r.err
}

func authRouter(resolver ActorResolver) *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthMiddleware(&config.Config{JWTSecret: testSecret}, resolver), echoActor)
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	store := testutil.NewMemStore()
	store.AddUser(t, "u1", "Ada@Example.com", "Ada")
	identity := services.NewIdentityService(store)
	r := authRouter(identity)

	w := get(r, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_REQUIRED")

	w = get(r, "/me", map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")

	wrongKey, err := utils.GenerateAccessToken("u1", "ada@example.com", "other-secret", time.Minute)
	require.NoError(t, err)
	w = get(r, "/me", map[string]string{"Authorization": "Bearer " + wrongKey})
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")

	unknown, err := utils.GenerateAccessToken("u-gone", "gone@example.com", testSecret, time.Minute)
	require.NoError(t, err)
	w = get(r, "/me", map[string]string{"Authorization": "Bearer " + unknown})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateAccessToken("u1", "ada@example.com", testSecret, time.Minute)
	require.NoError(t, err)
	w = get(r, "/me", map[string]string{"Authorization": "bearer " + token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"id":"u1","email":"Ada@Example.com","emailLower":"ada@example.com","name":"Ada"}`, w.Body.String())
}

func TestAuthMiddlewareStoreDown(t *testing.T) {
	r := authRouter(failingResolver{err: errors.New("connection refused")})
	w := get(r, "/me", map[string]string{"Authorization": "Bearer x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0.001, 2))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	a := map[string]string{"X-Forwarded-For": "10.0.0.1"}
	assert.Equal(t, http.StatusOK, get(r, "/ping", a).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", a).Code)
	w := get(r, "/ping", a)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")

	// buckets are per client
	assert.Equal(t, http.StatusOK, get(r, "/ping", map[string]string{"X-Forwarded-For": "10.0.0.2"}).Code)
}

func TestRequestLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/boards/:id", func(c *gin.Context) {
		c.Set(handlers.ActorKey, models.Actor{EmailLower: "ada@example.com"})
		c.Status(http.StatusNotFound)
	})

	w := get(r, "/boards/42", map[string]string{RequestIDHeader: "req-1"})
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "/boards/:id", entry.Data["route"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "ada@example.com", entry.Data["actor"])
	assert.Equal(t, "req-1", entry.Data["request_id"])

	w = get(r, "/boards/43", nil)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/tasks/:id", "200")
	before := promtest.ToFloat64(counter)
	get(r, "/tasks/1", nil)
	get(r, "/tasks/2", nil)
	assert.Equal(t, before+2, promtest.ToFloat64(counter))
	assert.Equal(t, 0.0, promtest.ToFloat64(metrics.HTTPInFlight))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(&config.Config{FrontendURL: "http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
