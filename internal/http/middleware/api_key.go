package middleware

import (
	"net/http"
	"strings"

	"github.com/jmehdipour/botd-saas/internal/metrics"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmehdipour/botd-saas/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// AccountFromCtx extracts the authenticated account set by APIKeyMiddleware.
func AccountFromCtx(c echo.Context) (*model.Account, bool) {
	v := c.Get("account")
	acct, ok := v.(*model.Account)
	return acct, ok
}

// APIKeyMiddleware authenticates requests using the X-API-Key header.
// On success it stores the account in context for downstream handlers.
func APIKeyMiddleware(accounts repository.AccountsRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				metrics.GateRejectionsTotal.WithLabelValues("missing_key").Inc()
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "API key required"})
			}
			acct, err := accounts.GetByAPIKey(c.Request().Context(), key)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			if acct == nil {
				metrics.GateRejectionsTotal.WithLabelValues("invalid_key").Inc()
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			}
			c.Set("account", acct)
			return next(c)
		}
	}
}
