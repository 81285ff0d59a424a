package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aw226929-cmd/iturnin-backend/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c)+"|"+utils.RequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	rid := w.Header().Get("X-Request-ID")
	require.NotEmpty(t, rid)
	assert.Equal(t, rid+"|"+rid, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestRequireAdmin(t *testing.T) {
	const secret = "jwt-secret"
	r := gin.New()
	r.GET("/admin", RequireAdmin(secret), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	good, err := IssueAdminToken(secret, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := IssueAdminToken(secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	forged, err := IssueAdminToken("other-secret", time.Hour, time.Now())
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do("Bearer "+good))
	assert.Equal(t, http.StatusUnauthorized, do(""))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+expired))
	assert.Equal(t, http.StatusUnauthorized, do("Bearer "+forged))
	assert.Equal(t, http.StatusUnauthorized, do(good))
}

func TestRequireAdminDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAdmin(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(2)
	now := time.Now()
	assert.True(t, l.allow("1.1.1.1", now))
	assert.True(t, l.allow("1.1.1.1", now))
	assert.False(t, l.allow("1.1.1.1", now))
	assert.True(t, l.allow("2.2.2.2", now), "buckets are per ip")
	assert.True(t, l.allow("1.1.1.1", now.Add(31*time.Second)))

	l.allow("3.3.3.3", now.Add(time.Hour))
	l.mu.Lock()
	_, stale := l.visitors["2.2.2.2"]
	l.mu.Unlock()
	assert.False(t, stale, "idle buckets are dropped")
}

func TestIPRateLimiterSweepsOnInterval(t *testing.T) {
	l := NewIPRateLimiter(5)
	start := time.Now()
	l.allow("1.1.1.1", start)

	// 1.1.1.1 is idle past the cutoff, but the last sweep was under a minute ago
	l.lastSweep = start.Add(20 * time.Minute)
	l.allow("2.2.2.2", start.Add(20*time.Minute+30*time.Second))
	l.mu.Lock()
	_, kept := l.visitors["1.1.1.1"]
	l.mu.Unlock()
	assert.True(t, kept)

	l.allow("2.2.2.2", start.Add(21*time.Minute))
	l.mu.Lock()
	_, kept = l.visitors["1.1.1.1"]
	_, active := l.visitors["2.2.2.2"]
	sweptAt := l.lastSweep
	l.mu.Unlock()
	assert.False(t, kept)
	assert.True(t, active)
	assert.Equal(t, start.Add(21*time.Minute), sweptAt)
}

func TestIPRateLimiterMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/x", NewIPRateLimiter(1).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var unlimited *IPRateLimiter
	r2 := gin.New()
	r2.POST("/x", unlimited.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 5; i++ {
		w = httptest.NewRecorder()
		r2.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
