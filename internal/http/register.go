package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmehdipour/botd-saas/internal/repository"
	"github.com/jmehdipour/botd-saas/internal/util"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type registerReq struct {
	Email string `json:"email"`
}

// registerHandler issues a fresh API key on the free tier. Keys embed a ULID
// so two registrations can never collide.
func registerHandler(accounts repository.AccountsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		// body is optional; ignore bind errors for empty bodies
		_ = c.Bind(&req)

		var email *string
		if v := strings.TrimSpace(req.Email); v != "" {
			email = &v
		}

		apiKey := util.NewAPIKey()
		acct, err := accounts.Create(c.Request().Context(), apiKey, email, model.Period(time.Now()))
		if err != nil {
			log.Errorf("register failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"api_key": acct.APIKey,
			"tier":    acct.Tier.String(),
		})
	}
}
