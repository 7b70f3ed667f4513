package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sandarika/labubananas/testutil"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(4) // burst of 2

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("first requests within the burst should pass")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("request over the burst should be rejected")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("limits are per key")
	}
}

func TestRateLimiterMinimums(t *testing.T) {
	rl := NewRateLimiter(0)
	if !rl.Allow("k") {
		t.Error("a zero limit is clamped to one request")
	}
	if rl.Allow("k") {
		t.Error("second immediate request should be rejected")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(NewRateLimiter(2).Middleware())
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })

	w := testutil.Serve(r, testutil.MakeRequest(http.MethodGet, "/", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = testutil.Serve(r, testutil.MakeRequest(http.MethodGet, "/", nil, nil))
	testutil.AssertDetail(t, w, http.StatusTooManyRequests, "Too many requests")
}
