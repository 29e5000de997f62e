package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jmehdipour/botd-saas/internal/billing"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type checkoutReq struct {
	APIKey string `json:"api_key"`
	Tier   string `json:"tier"`
	Email  string `json:"email"`
}

func createCheckoutSessionHandler(billingSvc *billing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req checkoutReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.APIKey = strings.TrimSpace(req.APIKey)
		if req.APIKey == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "API key required"})
		}

		sess, err := billingSvc.CreateCheckoutSession(c.Request().Context(), req.APIKey, req.Tier, strings.TrimSpace(req.Email))
		if err != nil {
			return billingError(c, err)
		}

		return c.JSON(http.StatusOK, sess)
	}
}

type portalReq struct {
	APIKey string `json:"api_key"`
}

func createPortalSessionHandler(billingSvc *billing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req portalReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if strings.TrimSpace(req.APIKey) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "API key required"})
		}

		url, err := billingSvc.CreatePortalSession(c.Request().Context(), strings.TrimSpace(req.APIKey))
		if err != nil {
			return billingError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]string{"portal_url": url})
	}
}

type cancelReq struct {
	APIKey string `json:"api_key"`
}

func cancelSubscriptionHandler(billingSvc *billing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req cancelReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if strings.TrimSpace(req.APIKey) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "API key required"})
		}

		if err := billingSvc.CancelSubscription(c.Request().Context(), strings.TrimSpace(req.APIKey)); err != nil {
			return billingError(c, err)
		}

		return c.JSON(http.StatusOK, map[string]string{
			"status": "cancel_at_period_end",
			"tier":   "free",
		})
	}
}

// billingError maps billing bridge failures onto the error taxonomy: bad
// credentials are 401, everything else (including provider failures) is a
// generic client error carrying the provider's message.
func billingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, billing.ErrUnknownKey):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid API key"})
	case errors.Is(err, billing.ErrInvalidTier):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid tier"})
	case errors.Is(err, billing.ErrNoBillingAccount):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no billing account"})
	case errors.Is(err, billing.ErrNoSubscription):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no active subscription"})
	default:
		log.Errorf("billing call failed: %v", err)

		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
}
