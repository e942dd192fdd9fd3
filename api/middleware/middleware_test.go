package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mailforge/mailforge/config"
	"github.com/mailforge/mailforge/models"
)

func setupRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func get(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthDisabledWhenNoKeys(t *testing.T) {
	r := setupRouter(Auth(nil))
	if w := get(r, nil); w.Code != http.StatusOK {
		t.Errorf("status = %d, want open access with no keys", w.Code)
	}
}

func TestAuthMissingKey(t *testing.T) {
	r := setupRouter(Auth([]string{"secret"}))
	w := get(r, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeUnauthorized {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestAuthInvalidKey(t *testing.T) {
	r := setupRouter(Auth([]string{"secret"}))
	if w := get(r, map[string]string{"X-API-Key": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthValidHeaderStyles(t *testing.T) {
	r := setupRouter(Auth([]string{"secret"}))

	if w := get(r, map[string]string{"X-API-Key": "secret"}); w.Code != http.StatusOK {
		t.Errorf("X-API-Key status = %d", w.Code)
	}
	if w := get(r, map[string]string{"Authorization": "Bearer secret"}); w.Code != http.StatusOK {
		t.Errorf("Bearer status = %d", w.Code)
	}
	if w := get(r, map[string]string{"Authorization": "Basic secret"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Basic scheme status = %d, want 401", w.Code)
	}
}

func TestRateLimitBurstThenReject(t *testing.T) {
	r := setupRouter(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	for i := 0; i < 2; i++ {
		if w := get(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200 within burst", i+1, w.Code)
		}
	}

	w := get(r, nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 after burst", w.Code)
	}
	var resp models.GenerateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeRateLimited {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestRateLimitPerIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Auth sets api_key in the context, which RateLimit uses as identity.
	r.Use(Auth([]string{"key-a", "key-b"}))
	r.Use(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	if w := get(r, map[string]string{"X-API-Key": "key-a"}); w.Code != http.StatusOK {
		t.Fatalf("key-a first request = %d", w.Code)
	}
	if w := get(r, map[string]string{"X-API-Key": "key-a"}); w.Code != http.StatusTooManyRequests {
		t.Errorf("key-a second request = %d, want 429", w.Code)
	}
	// A different key has its own bucket.
	if w := get(r, map[string]string{"X-API-Key": "key-b"}); w.Code != http.StatusOK {
		t.Errorf("key-b first request = %d, want 200", w.Code)
	}
}
