package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridermarket/internal/logger"
)

type TypingRepository struct {
	pool *pgxpool.Pool
}

func NewTypingRepository(pool *pgxpool.Pool) *TypingRepository {
	return &TypingRepository{pool: pool}
}

// Upsert overwrites the single (thread, user) typing row with a fresh
// timestamp. No history is kept.
func (r *TypingRepository) Upsert(ctx context.Context, contactRequestID, userID string, at time.Time) error {
	defer logger.DeferLogDuration("typing.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO typing_states (contact_request_id, user_id, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (contact_request_id, user_id) DO UPDATE SET updated_at = $3`,
		contactRequestID, userID, at,
	)
	if err != nil {
		return fmt.Errorf("typingRepo.Upsert: %w", err)
	}
	return nil
}

// UpdatedAt returns the last typing signal for the pair, nil if none exists.
func (r *TypingRepository) UpdatedAt(ctx context.Context, contactRequestID, userID string) (*time.Time, error) {
	defer logger.DeferLogDuration("typing.UpdatedAt", time.Now())()
	var t time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT updated_at FROM typing_states WHERE contact_request_id = $1 AND user_id = $2`,
		contactRequestID, userID,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("typingRepo.UpdatedAt: %w", err)
	}
	return &t, nil
}
