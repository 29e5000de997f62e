package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/jmehdipour/botd-saas/internal/http/middleware"
	"github.com/jmehdipour/botd-saas/internal/service/meter"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// statsHandler returns the usage snapshot without admitting a request.
func statsHandler(meterSvc *meter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		acct, ok := middleware.AccountFromCtx(c)
		if !ok || acct == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		usage, err := meterSvc.Stats(c.Request().Context(), acct.APIKey, time.Now())
		if err != nil {
			if errors.Is(err, meter.ErrUnknownKey) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			}

			log.Errorf("stats failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, usage)
	}
}
