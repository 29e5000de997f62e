package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/db"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
			MaxOpenConns:    cfg.MySQL.MaxOpenConns,
			MaxIdleConns:    cfg.MySQL.MaxIdleConns,
			ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
			PingTimeout:     cfg.MySQL.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo accounts...")

		if err := seedAccounts(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed ✅")
		return nil
	},
}

// seedAccounts inserts deterministic demo accounts across tiers (idempotent).
func seedAccounts(dbx *sqlx.DB) error {
	accounts := []model.Account{
		{
			APIKey:       "botd_00000000000000000000000001",
			Email:        strptr("free@example.com"),
			Tier:         model.TierFree,
			RateLimitRPS: nil,
		},
		{
			APIKey:       "botd_00000000000000000000000002",
			Email:        strptr("starter@example.com"),
			Tier:         model.TierStarter,
			RateLimitRPS: intptr(20),
		},
		{
			APIKey:       "botd_00000000000000000000000003",
			Email:        strptr("pro@example.com"),
			Tier:         model.TierPro,
			RateLimitRPS: intptr(100),
		},
	}

	// idempotent upsert based on api_key (UNIQUE)
	const q = `
INSERT INTO accounts
    (api_key, email, tier, requests_used, last_reset, rate_limit_rps, created_at, updated_at)
VALUES
    (?, ?, ?, 0, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    email          = VALUES(email),
    tier           = VALUES(tier),
    rate_limit_rps = VALUES(rate_limit_rps),
    updated_at     = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	period := model.Period(now)
	for _, a := range accounts {
		if _, err := tx.Exec(q, a.APIKey, a.Email, a.Tier.String(), period, a.RateLimitRPS, now, now); err != nil {
			return fmt.Errorf("insert account %q: %w", a.APIKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accounts: %w", err)
	}
	return nil
}

func intptr(i int) *int       { return &i }
func strptr(s string) *string { return &s }
