package repository

import (
	"context"

	"github.com/jmehdipour/botd-saas/internal/model"
	"github.com/jmoiron/sqlx"
)

// DetectionsRepository appends and lists classified requests in ClickHouse.
type DetectionsRepository interface {
	Insert(ctx context.Context, d model.Detection) error
	ListByAccount(ctx context.Context, accountID int64, isBot *bool, limit, offset int) ([]model.Detection, error)
}

type detectionsRepository struct {
	ch *sqlx.DB // ClickHouse connection
}

func NewDetectionsRepository(ch *sqlx.DB) DetectionsRepository {
	return &detectionsRepository{ch: ch}
}

func (r *detectionsRepository) Insert(ctx context.Context, d model.Detection) error {
	_, err := r.ch.ExecContext(ctx, `
		INSERT INTO botd.detections (account_id, user_agent, is_bot, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, d.AccountID, d.UserAgent, d.IsBot, d.Confidence, d.CreatedAt)
	return err
}

func (r *detectionsRepository) ListByAccount(ctx context.Context, accountID int64, isBot *bool, limit, offset int) ([]model.Detection, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	q := `
		SELECT account_id, user_agent, is_bot, confidence, created_at
		FROM botd.detections
		WHERE account_id = ?
	`
	args := []any{accountID}

	if isBot != nil {
		q += " AND is_bot = ?"
		args = append(args, *isBot)
	}

	q += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	var rows []model.Detection
	if err := r.ch.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
