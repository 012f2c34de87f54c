package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/samplesearch/internal/pkg/jwt"
)

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	handler := func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserIDKey))
	}
	r.GET("/samples", handler)
	r.OPTIONS("/samples", handler)
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	r := newRouter(CORS([]string{"https://studio.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	w := serve(r, req)
	require.Equal(t, "https://studio.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = serve(r, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/samples", nil)
	w = serve(r, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = serve(newRouter(CORS(nil)), httptest.NewRequest(http.MethodGet, "/samples", nil))
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/samples", nil))
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	require.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set(RequestIDHeader, id)
	w = serve(r, req)
	require.Equal(t, id, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	w = serve(r, req)
	require.NotEqual(t, "not-a-uuid", w.Header().Get(RequestIDHeader))
}

func TestJWTAuth(t *testing.T) {
	secret := []byte("0123456789abcdef")
	r := newRouter(JWTAuth(secret))

	w := serve(r, httptest.NewRequest(http.MethodGet, "/samples", nil))
	require.Contains(t, w.Body.String(), "missing authorization")

	req := httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Authorization", "Basic abc")
	w = serve(r, req)
	require.Contains(t, w.Body.String(), "invalid authorization")

	req = httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = serve(r, req)
	require.Contains(t, w.Body.String(), "invalid token")

	token, err := jwt.GenerateToken("studio-1", secret, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "studio-1", w.Body.String())
}

func TestJWTAuthDisabled(t *testing.T) {
	w := serve(newRouter(JWTAuth(nil)), httptest.NewRequest(http.MethodGet, "/samples", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())
}
