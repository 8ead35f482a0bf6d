package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragisir/automatic-resturent-system/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func perform(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	tokens := utils.NewAdminTokens("admin-secret", time.Hour)
	r := gin.New()
	r.GET("/admin", AdminAuth(tokens), RequireRole(utils.RoleAdmin), okHandler)

	w := perform(r, http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	staff, err := tokens.GenerateToken("kitchen", "staff")
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + staff})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := tokens.GenerateToken("admin", utils.RoleAdmin)
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + admin})
	assert.Equal(t, http.StatusOK, w.Code)

	other := utils.NewAdminTokens("other-secret", time.Hour)
	forged, err := other.GenerateToken("admin", utils.RoleAdmin)
	require.NoError(t, err)
	w = perform(r, http.MethodGet, "/admin", map[string]string{"Authorization": "Bearer " + forged})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiterPerIP(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	r := gin.New()
	r.POST("/limited", limiter.RateLimit(), okHandler)

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))

	clock = clock.Add(10 * time.Minute)
	from("10.0.0.3")
	assert.Len(t, limiter.visitors, 1)
}

func TestWebSocketGroup(t *testing.T) {
	r := gin.New()
	r.GET("/ws/:group", WebSocketGroup(20), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"group": c.GetString("ws_group"), "table": c.GetInt("ws_table")})
	})

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ws/kitchen", nil).Code)
	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/ws/customer?table=4", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/ws/customer", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/ws/customer?table=21", nil).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/ws/chef", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddlewares([]string{"http://menu.test"}))
	r.POST("/api/orders", okHandler)

	w := perform(r, http.MethodOptions, "/api/orders", map[string]string{
		"Origin":                        "http://menu.test",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://menu.test", w.Header().Get("Access-Control-Allow-Origin"))

	w = perform(r, http.MethodPost, "/api/orders", map[string]string{"Origin": "http://evil.test"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/ping", okHandler)

	w := perform(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
