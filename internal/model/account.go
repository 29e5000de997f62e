package model

import "time"

// Account is the per-API-key entitlement record.
type Account struct {
	ID               int64     `db:"id"`
	APIKey           string    `db:"api_key"`
	Email            *string   `db:"email"` // nullable
	Tier             Tier      `db:"tier"`
	RequestsUsed     int64     `db:"requests_used"`
	LastReset        string    `db:"last_reset"`         // calendar month marker, "2006-01"
	StripeCustomerID *string   `db:"stripe_customer_id"` // nullable, set once
	RateLimitRPS     *int      `db:"rate_limit_rps"`     // nullable per-account override
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Period formats t as the calendar-month marker stored in last_reset.
func Period(t time.Time) string {
	return t.UTC().Format("2006-01")
}
