package meter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/botd-saas/internal/config"
	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmehdipour/botd-saas/internal/repository"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUnknownKey    = errors.New("unknown api key")
	ErrQuotaExceeded = errors.New("quota exceeded")
)

// Usage is the admission metadata returned with every gate decision.
type Usage struct {
	Used      int64  `json:"requests_used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	Tier      string `json:"tier"`
	Period    string `json:"period"`
}

// Service is the metering gate. Allow runs the period reset, quota check and
// usage increment for one request in a single transaction.
type Service struct {
	db       *sqlx.DB
	accounts repository.AccountsRepository
	limits   config.TierLimits
}

func New(db *sqlx.DB, accounts repository.AccountsRepository, limits config.TierLimits) *Service {
	return &Service{db: db, accounts: accounts, limits: limits}
}

// Allow admits or rejects one metered request for apiKey at time now.
//
// Ordering is load-bearing: the account row is locked FOR UPDATE, the counter
// is zeroed first if the calendar month rolled over, the quota check reads the
// post-reset counter, and the increment happens only after the check passes.
// Rejected requests are never counted.
func (s *Service) Allow(ctx context.Context, apiKey string, now time.Time) (Usage, error) {
	period := model.Period(now)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() { _ = tx.Rollback() }()

	acct, err := s.accounts.GetForUpdate(ctx, tx, apiKey)
	if err != nil {
		return Usage{}, fmt.Errorf("account get for update: %w", err)
	}
	if acct == nil {
		return Usage{}, ErrUnknownKey
	}

	if acct.LastReset != period {
		if err := s.accounts.ResetPeriod(ctx, tx, acct.ID, period); err != nil {
			return Usage{}, fmt.Errorf("period reset: %w", err)
		}
		acct.RequestsUsed = 0
		acct.LastReset = period
	}

	limit := s.limits.LimitFor(acct.Tier.String())
	if acct.RequestsUsed >= limit {
		return Usage{
			Used:      acct.RequestsUsed,
			Limit:     limit,
			Remaining: 0,
			Tier:      acct.Tier.String(),
			Period:    period,
		}, ErrQuotaExceeded
	}

	if err := s.accounts.IncrementUsage(ctx, tx, acct.ID); err != nil {
		return Usage{}, fmt.Errorf("usage increment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Usage{}, err
	}

	used := acct.RequestsUsed + 1
	return Usage{
		Used:      used,
		Limit:     limit,
		Remaining: limit - used,
		Tier:      acct.Tier.String(),
		Period:    period,
	}, nil
}

// Stats returns the usage snapshot for apiKey without admitting a request.
// A stale period is reported as zero usage; the stored counter is only
// rewritten by the next metered request.
func (s *Service) Stats(ctx context.Context, apiKey string, now time.Time) (Usage, error) {
	acct, err := s.accounts.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return Usage{}, fmt.Errorf("account get: %w", err)
	}
	if acct == nil {
		return Usage{}, ErrUnknownKey
	}

	period := model.Period(now)
	used := acct.RequestsUsed
	if acct.LastReset != period {
		used = 0
	}

	limit := s.limits.LimitFor(acct.Tier.String())
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Usage{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		Tier:      acct.Tier.String(),
		Period:    period,
	}, nil
}
