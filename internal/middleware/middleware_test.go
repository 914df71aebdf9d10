package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vasset/resolver-service/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("body = %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic value leaked to client")
	}
}

func TestLoggerRequestID(t *testing.T) {
	r := gin.New()
	r.Use(Logger(zap.NewNop()))

	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get("X-Request-ID")
	if generated == "" || generated != seen {
		t.Errorf("generated id %q, handler saw %q", generated, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w = serve(r, req)
	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" || seen != "upstream-id" {
		t.Errorf("propagated id = %q, handler saw %q", got, seen)
	}
}

func TestCORSAllowList(t *testing.T) {
	r := gin.New()
	r.Use(CORS(&config.CORSConfig{AllowedOrigins: []string{"https://ok.example"}, MaxAge: 600}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://ok.example")
	w := serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ok.example" {
		t.Errorf("allowed origin header = %q", got)
	}
	if got := w.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Errorf("max-age = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin got allow header %q", got)
	}
}

func TestIPRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{IPRPS: 1, Burst: 1})
	r := gin.New()
	r.Use(IPRateLimit(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	request := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		return serve(r, req).Code
	}

	if code := request("10.0.0.1:1000"); code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
	if code := request("10.0.0.1:1001"); code != http.StatusTooManyRequests {
		t.Errorf("second request from same ip status = %d, want 429", code)
	}
	if code := request("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("other ip status = %d, want 200", code)
	}
}

func TestGlobalRateLimit(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{GlobalRPS: 1, IPRPS: 100, Burst: 1})
	r := gin.New()
	r.Use(IPRateLimit(rl))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.1.%d:80", i+1)
		codes = append(codes, serve(r, req).Code)
	}
	// 全局桶容量为 burst*2
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}
