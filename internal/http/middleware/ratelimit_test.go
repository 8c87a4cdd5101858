package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"microwallet/internal/cache"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func hit(r http.Handler, path string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	r.ServeHTTP(w, req)
	return w.Code
}

func TestLocalRateLimit(t *testing.T) {
	rl := NewRateLimiter(nil)
	r := gin.New()
	r.GET("/test", rl.PerIP("api", 2, time.Minute), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	assert.Equal(t, http.StatusOK, hit(r, "/test"))
	assert.Equal(t, http.StatusOK, hit(r, "/test"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/test"))
}

func TestPerUserRequiresAuth(t *testing.T) {
	rl := NewRateLimiter(nil)
	r := gin.New()
	r.GET("/test", rl.PerUser("chat", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusUnauthorized, hit(r, "/test"))
}

func TestPerUserKeysByUser(t *testing.T) {
	rl := NewRateLimiter(nil)
	r := gin.New()
	uid := int64(1)
	r.GET("/test", func(c *gin.Context) {
		c.Set(ContextUserID, uid)
		c.Next()
	}, rl.PerUser("chat", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, hit(r, "/test"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "/test"))
	uid = 2
	assert.Equal(t, http.StatusOK, hit(r, "/test"))
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client, err := cache.Connect(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer client.Close()

	// unique scope so reruns start from an empty window
	scope := "test-" + uuid.NewString()
	r := gin.New()
	r.GET("/test", NewRateLimiter(client).PerIP(scope, 2, 2*time.Second), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		res, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	}

	res, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}
