package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, int64(1000), cfg.Tiers.Free)
	assert.Equal(t, int64(10000), cfg.Tiers.Starter)
	assert.Equal(t, int64(100000), cfg.Tiers.Pro)
	assert.Equal(t, []string{"bot", "crawler", "spider", "curl"}, cfg.Detector.BotKeywords)
	assert.Equal(t, 10, cfg.RateLimit.RPS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "price_starter_monthly", cfg.Stripe.PriceIDs["starter"])
}

func TestLoadUserFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
tiers:
  free: 50
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, int64(50), cfg.Tiers.Free)
	// untouched keys keep defaults
	assert.Equal(t, int64(10000), cfg.Tiers.Starter)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BOTD_HTTP_ADDR", ":9999")
	t.Setenv("BOTD_TIERS_FREE", "5")
	t.Setenv("BOTD_STRIPE_SECRET_KEY", "sk_test_env")
	t.Setenv("BOTD_STRIPE_WEBHOOK_SECRET", "whsec_env")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTP.Addr)
	assert.Equal(t, int64(5), cfg.Tiers.Free)
	assert.Equal(t, "sk_test_env", cfg.Stripe.SecretKey)
	assert.Equal(t, "whsec_env", cfg.Stripe.WebhookSecret)
}

func TestLoadEnvOverridesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":7070"
`), 0o644))

	t.Setenv("BOTD_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	require.NoError(t, err)

	// env wins over both defaults and the user file
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLimitFor(t *testing.T) {
	limits := TierLimits{Free: 1000, Starter: 10000, Pro: 100000}

	assert.Equal(t, int64(1000), limits.LimitFor("free"))
	assert.Equal(t, int64(10000), limits.LimitFor("starter"))
	assert.Equal(t, int64(100000), limits.LimitFor("pro"))
	// unknown tiers get the most restrictive limit
	assert.Equal(t, int64(1000), limits.LimitFor("enterprise"))
}

func TestPriceFor(t *testing.T) {
	cfg := StripeConfig{PriceIDs: map[string]string{"starter": "price_s"}}

	id, err := cfg.PriceFor("starter")
	require.NoError(t, err)
	assert.Equal(t, "price_s", id)

	_, err = cfg.PriceFor("pro")
	assert.Error(t, err)
}
