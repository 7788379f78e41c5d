package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coursecms/config"
	"coursecms/internal/auth"
	"coursecms/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func jwtConfig() *config.JWTConfig {
	return &config.JWTConfig{AccessSecret: "s", RefreshSecret: "r", AccessExpiry: time.Hour, RefreshExpiry: time.Hour}
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	cfg := jwtConfig()
	r := gin.New()
	r.GET("/", AuthRequired(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	tok, err := auth.GenerateAccessToken(cfg, 3, "a@b.c", "A", domain.RoleStudent)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token "+tok).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer junk").Code)

	w := serve(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":3,"role":"student"}`, w.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	cfg := jwtConfig()
	r := gin.New()
	r.GET("/", OptionalAuth(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	tok, err := auth.GenerateAccessToken(cfg, 8, "a@b.c", "A", domain.RoleStudent)
	require.NoError(t, err)

	assert.JSONEq(t, `{"user_id":0}`, serve(r, "").Body.String())
	assert.JSONEq(t, `{"user_id":0}`, serve(r, "Bearer junk").Body.String())
	assert.JSONEq(t, `{"user_id":8}`, serve(r, "Bearer "+tok).Body.String())
}

func TestRoleGuards(t *testing.T) {
	cfg := jwtConfig()
	r := gin.New()
	r.GET("/", AuthRequired(cfg), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	student, _ := auth.GenerateAccessToken(cfg, 1, "s@b.c", "S", domain.RoleStudent)
	admin, _ := auth.GenerateAccessToken(cfg, 2, "a@b.c", "A", domain.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+student).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+admin).Code)

	r2 := gin.New()
	r2.GET("/", AuthRequired(cfg), RequireRole(domain.RoleStudent), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusNoContent, serve(r2, "Bearer "+student).Code)
	assert.Equal(t, http.StatusForbidden, serve(r2, "Bearer "+admin).Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewIPRateLimiter(0.001, 2)
	r := gin.New()
	r.GET("/", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, "").Code)

	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per key")
}

func TestRateLimiterCleanupStops(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	limiter.ttl = time.Millisecond
	limiter.Allow("10.0.0.1")

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		limiter.Cleanup(5*time.Millisecond, stop)
		close(finished)
	}()

	assert.Eventually(t, func() bool {
		limiter.mu.Lock()
		defer limiter.mu.Unlock()
		return len(limiter.visitors) == 0
	}, time.Second, 5*time.Millisecond)

	close(stop)
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("cleanup kept running after stop was closed")
	}
}
