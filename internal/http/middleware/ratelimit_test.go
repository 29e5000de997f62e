package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmehdipour/botd-saas/internal/model"
	echo "github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLimiter(t *testing.T, rps int) (echo.MiddlewareFunc, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rds := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rds.Close() })

	mw := RateLimitMiddleware(RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     rps,
		Window:         time.Second,
		RetryAfterHint: true,
	})
	return mw, rds
}

func doLimited(t *testing.T, mw echo.MiddlewareFunc, acct *model.Account) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/detect", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account", acct)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	return rec.Code
}

func TestRateLimitMiddlewareLimits(t *testing.T) {
	mw, _ := setupLimiter(t, 1)
	acct := &model.Account{ID: 5, APIKey: "botd_x", Tier: model.TierFree}

	allowed, limited := 0, 0
	for i := 0; i < 10; i++ {
		switch doLimited(t, mw, acct) {
		case http.StatusOK:
			allowed++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	// the loop may straddle one window boundary, so allow a little slack
	assert.GreaterOrEqual(t, allowed, 1)
	assert.GreaterOrEqual(t, limited, 8)
}

func TestRateLimitMiddlewarePerAccountOverride(t *testing.T) {
	mw, _ := setupLimiter(t, 1)
	rps := 100
	acct := &model.Account{ID: 6, APIKey: "botd_y", Tier: model.TierPro, RateLimitRPS: &rps}

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doLimited(t, mw, acct))
	}
}

func TestRateLimitMiddlewareNoAccountPassesThrough(t *testing.T) {
	mw, _ := setupLimiter(t, 1)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareNilRedisFailsOpen(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitConfig{DefaultRPS: 1})
	acct := &model.Account{ID: 7, APIKey: "botd_z", Tier: model.TierFree}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doLimited(t, mw, acct))
	}
}
