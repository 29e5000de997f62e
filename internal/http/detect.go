package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/jmehdipour/botd-saas/internal/detector"
	"github.com/jmehdipour/botd-saas/internal/http/middleware"
	"github.com/jmehdipour/botd-saas/internal/metrics"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmehdipour/botd-saas/internal/repository"
	"github.com/jmehdipour/botd-saas/internal/service/meter"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// detectHandler runs the metering gate and, for admitted requests, the
// classifier. The gate's decision is made before classification: rejected
// requests are never counted and never classified.
func detectHandler(meterSvc *meter.Service, det *detector.Detector, detections repository.DetectionsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		acct, ok := middleware.AccountFromCtx(c)
		if !ok || acct == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		now := time.Now()
		usage, err := meterSvc.Allow(c.Request().Context(), acct.APIKey, now)
		if err != nil {
			if errors.Is(err, meter.ErrQuotaExceeded) {
				metrics.GateRejectionsTotal.WithLabelValues("quota").Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":         "quota exceeded",
					"requests_used": usage.Used,
					"limit":         usage.Limit,
					"tier":          usage.Tier,
				})
			}
			if errors.Is(err, meter.ErrUnknownKey) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
			}

			log.Errorf("metering gate failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		ua := c.Request().Header.Get("User-Agent")
		result := det.Classify(ua)

		verdict := "human"
		if result.IsBot {
			verdict = "bot"
		}
		metrics.DetectionsTotal.WithLabelValues(verdict).Inc()

		// best-effort analytics append; never fails the response
		if detections != nil {
			d := model.Detection{
				AccountID:  acct.ID,
				UserAgent:  ua,
				IsBot:      result.IsBot,
				Confidence: result.Confidence,
				CreatedAt:  now.UTC(),
			}
			if err := detections.Insert(c.Request().Context(), d); err != nil {
				c.Logger().Warnf("detection log insert failed: %v", err)
			}
		}

		return c.JSON(http.StatusOK, map[string]any{
			"is_bot":        result.IsBot,
			"confidence":    result.Confidence,
			"timestamp":     now.Format(time.RFC3339),
			"requests_used": usage.Used,
			"limit":         usage.Limit,
			"remaining":     usage.Remaining,
			"tier":          usage.Tier,
		})
	}
}
