package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ridermarket/internal/logger"
	"github.com/ridermarket/internal/model"
)

var ErrNotFound = errors.New("not found")

const userCols = `id, name, email, avatar_url, last_active_at, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// scanUser scans one row into model.User (column order matches userCols).
func scanUser(s interface{ Scan(dest ...any) error }, u *model.User) error {
	return s.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.LastActiveAt, &u.CreatedAt)
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	defer logger.DeferLogDuration("user.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, name, email, avatar_url, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Name, u.Email, u.AvatarURL, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByID", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByEmail", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}
	return u, nil
}

// TouchActivity stamps the user's last_active_at. This is the sole presence
// signal; callers treat failures as advisory.
func (r *UserRepository) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	defer logger.DeferLogDuration("user.TouchActivity", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET last_active_at = $1 WHERE id = $2`,
		at, userID,
	)
	if err != nil {
		return fmt.Errorf("userRepo.TouchActivity: %w", err)
	}
	return nil
}

// LastActiveAt returns the user's last activity timestamp, nil if the user
// has never been seen active, ErrNotFound for an unknown user.
func (r *UserRepository) LastActiveAt(ctx context.Context, userID string) (*time.Time, error) {
	defer logger.DeferLogDuration("user.LastActiveAt", time.Now())()
	var t *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT last_active_at FROM users WHERE id = $1`, userID,
	).Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.LastActiveAt: %w", err)
	}
	return t, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name, avatarURL string) error {
	defer logger.DeferLogDuration("user.UpdateProfile", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $1, avatar_url = $2 WHERE id = $3`,
		name, avatarURL, userID,
	)
	if err != nil {
		return fmt.Errorf("userRepo.UpdateProfile: %w", err)
	}
	return nil
}
