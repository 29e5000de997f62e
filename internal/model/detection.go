package model

import "time"

// Detection is one classified request, appended to the ClickHouse log.
type Detection struct {
	AccountID  int64     `db:"account_id" json:"account_id"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	IsBot      bool      `db:"is_bot" json:"is_bot"`
	Confidence float64   `db:"confidence" json:"confidence"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
