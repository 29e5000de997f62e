package http

import (
	"context"
	"embed"
	"log"
	"net/http"
	"time"

	"github.com/jmehdipour/botd-saas/internal/billing"
	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/detector"
	"github.com/jmehdipour/botd-saas/internal/http/middleware"
	"github.com/jmehdipour/botd-saas/internal/metrics"
	"github.com/jmehdipour/botd-saas/internal/repository"
	"github.com/jmehdipour/botd-saas/internal/service/meter"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

//go:embed web
var webFS embed.FS

type Server struct{ e *echo.Echo }

// NewServer wires repositories, services and routes. clickhouseDB and rds are
// optional; without them the detection log and the RPS limiter degrade to
// no-ops.
func NewServer(cfg config.Config, mysqlDB, clickhouseDB *sqlx.DB, rds *redis.Client) *Server {
	// repos (MySQL)
	accountsRepo := repository.NewAccountsRepository(mysqlDB)

	// repos (ClickHouse)
	var detectionsRepo repository.DetectionsRepository
	if clickhouseDB != nil {
		detectionsRepo = repository.NewDetectionsRepository(clickhouseDB)
	}

	// services
	det := detector.New(cfg.Detector.BotKeywords)
	meterSvc := meter.New(mysqlDB, accountsRepo, cfg.Tiers)
	billingSvc := billing.New(accountsRepo, cfg.Stripe)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// dashboard + checkout redirect targets
	e.GET("/", staticPage("web/dashboard.html"))
	e.GET("/success", staticPage("web/success.html"))
	e.GET("/cancel", staticPage("web/cancel.html"))

	// middlewares
	authMW := middleware.APIKeyMiddleware(accountsRepo)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     cfg.RateLimit.RPS,
		KeyPrefix:      "rl:acct:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// public routes
	e.GET("/api", apiInfoHandler(cfg))
	e.POST("/api/register", registerHandler(accountsRepo))
	e.POST("/api/create-checkout-session", createCheckoutSessionHandler(billingSvc))
	e.POST("/api/create-portal-session", createPortalSessionHandler(billingSvc))
	e.POST("/api/cancel-subscription", cancelSubscriptionHandler(billingSvc))
	e.POST("/webhook", webhookHandler(billingSvc))

	// metered / key-gated routes
	e.POST("/api/detect", detectHandler(meterSvc, det, detectionsRepo), authMW, rlMW)
	e.GET("/api/stats", statsHandler(meterSvc), authMW)
	e.GET("/api/reports/detections", listDetectionsHandler(detectionsRepo), authMW)

	return &Server{e: e}
}

func apiInfoHandler(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"message":         "BotD SaaS API is running",
			"status":          "active",
			"publishable_key": cfg.Stripe.PublishableKey,
			"tiers": map[string]int64{
				"free":    cfg.Tiers.Free,
				"starter": cfg.Tiers.Starter,
				"pro":     cfg.Tiers.Pro,
			},
		})
	}
}

func staticPage(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		b, err := webFS.ReadFile(name)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "asset missing")
		}
		return c.HTMLBlob(http.StatusOK, b)
	}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
