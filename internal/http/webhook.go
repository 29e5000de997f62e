package http

import (
	"io"
	"net/http"

	"github.com/jmehdipour/botd-saas/internal/billing"
	"github.com/jmehdipour/botd-saas/internal/logger"
	echo "github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxWebhookBody = int64(65536)

// webhookHandler ingests payment-provider events. The signature is verified
// before anything touches the ledger; unverifiable payloads are rejected
// without side effects.
func webhookHandler(billingSvc *billing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		r := c.Request()
		r.Body = http.MaxBytesReader(c.Response(), r.Body, maxWebhookBody)
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot read body"})
		}

		event, err := billingSvc.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			logger.Log.Warn("webhook signature verification failed", zap.Error(err))
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		}

		if err := billingSvc.ProcessEvent(r.Context(), event, logger.Log); err != nil {
			logger.Log.Error("webhook processing failed",
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "event processing failed"})
		}

		return c.JSON(http.StatusOK, map[string]string{"received": "true"})
	}
}
