package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(perMinute, perHour int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(perMinute, perHour, true)
	rl.now = clock.now
	return rl, clock
}

func TestAllowRequest_MinuteWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, 0)

	if !rl.AllowRequest("a") || !rl.AllowRequest("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.AllowRequest("a") {
		t.Fatal("third request within a minute should be rejected")
	}
	if !rl.AllowRequest("b") {
		t.Fatal("clients are limited independently")
	}

	clock.advance(61 * time.Second)
	if !rl.AllowRequest("a") {
		t.Fatal("window should slide after a minute")
	}
}

func TestAllowRequest_HourWindow(t *testing.T) {
	rl, clock := newTestLimiter(10, 3)

	for i := 0; i < 3; i++ {
		if !rl.AllowRequest("a") {
			t.Fatalf("request %d should pass", i)
		}
		clock.advance(2 * time.Minute)
	}
	if rl.AllowRequest("a") {
		t.Fatal("hourly limit should apply")
	}

	stats := rl.GetStats("a")
	if stats.RequestsLastHour != 3 || stats.RemainingThisHour != 0 || stats.RemainingThisMinute != 10 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestAllowRequest_Disabled(t *testing.T) {
	rl := NewRateLimiter(1, 1, false)
	for i := 0; i < 5; i++ {
		if !rl.AllowRequest("a") {
			t.Fatal("disabled limiter must allow everything")
		}
	}
	if rl.GetStats("a").Enabled {
		t.Error("stats should report disabled")
	}
}

func TestSweep(t *testing.T) {
	rl, clock := newTestLimiter(10, 0)
	rl.AllowRequest("a")
	clock.advance(30 * time.Minute)
	rl.AllowRequest("b")
	clock.advance(31 * time.Minute)

	if removed := rl.Sweep(); removed != 1 {
		t.Errorf("expected 1 idle client removed, got %d", removed)
	}
	if _, ok := rl.clients["b"]; !ok {
		t.Error("active client should be kept")
	}
}

func TestGetStats_DoesNotTrackClient(t *testing.T) {
	rl, clock := newTestLimiter(10, 100)
	rl.AllowRequest("a")
	rl.AllowRequest("a")

	stats := rl.GetStats("stranger")
	if stats.RequestsLastMinute != 0 || stats.RemainingThisMinute != 10 {
		t.Errorf("unexpected stats for unknown client %+v", stats)
	}
	if _, ok := rl.clients["stranger"]; ok {
		t.Error("stats lookup must not add a client")
	}
	if stats.TrackedClients != 1 {
		t.Errorf("expected 1 tracked client, got %d", stats.TrackedClients)
	}

	clock.advance(61 * time.Second)
	stats = rl.GetStats("a")
	if stats.RequestsLastMinute != 0 || stats.RequestsLastHour != 2 {
		t.Errorf("expected expired minute window, got %+v", stats)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 0)

	r := gin.New()
	r.GET("/api/search", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/search", http.NoBody)
		req.RemoteAddr = "203.0.113.7:4000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
}
