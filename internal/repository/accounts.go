package repository

import (
	"context"
	"database/sql"

	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmoiron/sqlx"
)

// AccountsRepository is the entitlement ledger: one row per issued API key.
type AccountsRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
	Create(ctx context.Context, apiKey string, email *string, period string) (*model.Account, error)

	// Metered-path operations; all run inside the caller's transaction so the
	// reset + quota check + increment sequence is serialized per account.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, apiKey string) (*model.Account, error)
	ResetPeriod(ctx context.Context, tx *sqlx.Tx, accountID int64, period string) error
	IncrementUsage(ctx context.Context, tx *sqlx.Tx, accountID int64) error

	// Billing-path operations.
	SetTier(ctx context.Context, apiKey string, tier model.Tier) error
	SetTierByCustomer(ctx context.Context, customerID string, tier model.Tier) error
	AttachStripeCustomer(ctx context.Context, apiKey, customerID string) error
}

type AccountsRepositoryImpl struct {
	db *sqlx.DB
}

func NewAccountsRepository(db *sqlx.DB) *AccountsRepositoryImpl {
	return &AccountsRepositoryImpl{db: db}
}

var _ AccountsRepository = (*AccountsRepositoryImpl)(nil)

const accountColumns = `id, api_key, email, tier, requests_used, last_reset, stripe_customer_id, rate_limit_rps, created_at, updated_at`

func (r *AccountsRepositoryImpl) GetByAPIKey(ctx context.Context, apiKey string) (*model.Account, error) {
	var a model.Account
	err := r.db.GetContext(ctx, &a, `
		SELECT `+accountColumns+`
		  FROM accounts
		 WHERE api_key = ? LIMIT 1
	`, apiKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountsRepositoryImpl) Create(ctx context.Context, apiKey string, email *string, period string) (*model.Account, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (api_key, email, tier, requests_used, last_reset, created_at, updated_at)
		VALUES (?, ?, 'free', 0, ?, NOW(), NOW())
	`, apiKey, email, period)
	if err != nil {
		return nil, err
	}
	return r.GetByAPIKey(ctx, apiKey)
}

func (r *AccountsRepositoryImpl) GetForUpdate(ctx context.Context, tx *sqlx.Tx, apiKey string) (*model.Account, error) {
	var a model.Account
	err := tx.GetContext(ctx, &a, `
		SELECT `+accountColumns+`
		  FROM accounts
		 WHERE api_key = ?
		 FOR UPDATE
	`, apiKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountsRepositoryImpl) ResetPeriod(ctx context.Context, tx *sqlx.Tx, accountID int64, period string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		   SET requests_used = 0, last_reset = ?, updated_at = NOW()
		 WHERE id = ?
	`, period, accountID)
	return err
}

func (r *AccountsRepositoryImpl) IncrementUsage(ctx context.Context, tx *sqlx.Tx, accountID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		   SET requests_used = requests_used + 1, updated_at = NOW()
		 WHERE id = ?
	`, accountID)
	return err
}

func (r *AccountsRepositoryImpl) SetTier(ctx context.Context, apiKey string, tier model.Tier) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		   SET tier = ?, updated_at = NOW()
		 WHERE api_key = ?
	`, tier.String(), apiKey)
	return err
}

func (r *AccountsRepositoryImpl) SetTierByCustomer(ctx context.Context, customerID string, tier model.Tier) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		   SET tier = ?, updated_at = NOW()
		 WHERE stripe_customer_id = ?
	`, tier.String(), customerID)
	return err
}

// AttachStripeCustomer records the provider customer id once; a key that already
// has a customer attached keeps the original (idempotent).
func (r *AccountsRepositoryImpl) AttachStripeCustomer(ctx context.Context, apiKey, customerID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		   SET stripe_customer_id = ?, updated_at = NOW()
		 WHERE api_key = ? AND stripe_customer_id IS NULL
	`, customerID, apiKey)
	return err
}
