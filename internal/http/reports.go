package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/botd-saas/internal/http/middleware"
	"github.com/jmehdipour/botd-saas/internal/repository"
	echo "github.com/labstack/echo/v4"
)

// listDetectionsHandler lists the account's classified requests from the
// ClickHouse log, newest first.
func listDetectionsHandler(detections repository.DetectionsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		acct, ok := middleware.AccountFromCtx(c)
		if !ok || acct == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		if detections == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "detection log not configured"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		var isBot *bool
		if raw := strings.TrimSpace(c.QueryParam("is_bot")); raw != "" {
			if b, err := strconv.ParseBool(raw); err == nil {
				isBot = &b
			}
		}

		rows, err := detections.ListByAccount(c.Request().Context(), acct.ID, isBot, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(rows),
			"results": rows,
		})
	}
}
