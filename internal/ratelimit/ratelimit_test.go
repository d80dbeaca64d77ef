package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestWindowKey(t *testing.T) {
	l := New(nil, 5, time.Minute)
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	a := l.windowKey("ai", "u1", base.Add(5*time.Second))
	b := l.windowKey("ai", "u1", base.Add(55*time.Second))
	c := l.windowKey("ai", "u1", base.Add(65*time.Second))

	if a != b {
		t.Fatalf("same window produced different keys: %s %s", a, b)
	}
	if a == c {
		t.Fatalf("next window reused the key %s", a)
	}
	if a == l.windowKey("ai", "u2", base.Add(5*time.Second)) {
		t.Fatalf("subjects must not share a counter")
	}
}

func TestMiddlewareFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := gin.New()
	r.GET("/x",
		Middleware(New(client, 1, time.Minute), "ai", func(*gin.Context) string { return "u1" }, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want the handler to run", w.Code)
	}
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := New(client, 1, time.Minute)
	fixed := time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	user := "u1"
	r := gin.New()
	r.POST("/ai/x",
		Middleware(l, "ai", func(*gin.Context) string { return user }, zap.NewNop()),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ai/x", nil))
		return w
	}

	if w := hit(); w.Code != http.StatusNoContent {
		t.Fatalf("first hit: status = %d", w.Code)
	}

	w := hit()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second hit: status = %d, want 429", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("Retry-After = %q, want 60", got)
	}
	if !strings.Contains(w.Body.String(), `"code":"RATE_LIMIT_EXCEEDED"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	if ttl := mr.TTL(l.windowKey("ai", "u1", fixed)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("window key ttl = %v", ttl)
	}

	user = "u2"
	if w := hit(); w.Code != http.StatusNoContent {
		t.Fatalf("another user was limited: status = %d", w.Code)
	}

	fixed = fixed.Add(time.Minute)
	user = "u1"
	if w := hit(); w.Code != http.StatusNoContent {
		t.Fatalf("next window should reset the count: status = %d", w.Code)
	}
}
