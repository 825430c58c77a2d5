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

const riderCols = `user_id, display_name, COALESCE(nation,''), main_category, racing_score,
	        search_status, COALESCE(zwiftpower_link,''), COALESCE(zwiftracing_link,''),
	        preferred_leagues, preferred_days, COALESCE(preferred_time,''),
	        COALESCE(rider_type,''), COALESCE(discord_handle,''), COALESCE(bio,'')`

type RiderRepository struct {
	pool *pgxpool.Pool
}

func NewRiderRepository(pool *pgxpool.Pool) *RiderRepository {
	return &RiderRepository{pool: pool}
}

func scanRider(s interface{ Scan(dest ...any) error }, p *model.RiderProfile) error {
	return s.Scan(&p.UserID, &p.DisplayName, &p.Nation, &p.MainCategory, &p.RacingScore,
		&p.SearchStatus, &p.ZwiftpowerLink, &p.ZwiftracingLink,
		&p.PreferredLeagues, &p.PreferredDays, &p.PreferredTime,
		&p.RiderType, &p.DiscordHandle, &p.Bio)
}

// Upsert replaces the whole profile; the onboarding form always submits
// every field.
func (r *RiderRepository) Upsert(ctx context.Context, p *model.RiderProfile) error {
	defer logger.DeferLogDuration("rider.Upsert", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rider_profiles (user_id, display_name, nation, main_category, racing_score,
		        search_status, zwiftpower_link, zwiftracing_link, preferred_leagues, preferred_days,
		        preferred_time, rider_type, discord_handle, bio)
		 VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, NULLIF($7,''), NULLIF($8,''), $9, $10,
		        NULLIF($11,''), NULLIF($12,''), NULLIF($13,''), NULLIF($14,''))
		 ON CONFLICT (user_id) DO UPDATE SET
		        display_name = EXCLUDED.display_name, nation = EXCLUDED.nation,
		        main_category = EXCLUDED.main_category, racing_score = EXCLUDED.racing_score,
		        search_status = EXCLUDED.search_status, zwiftpower_link = EXCLUDED.zwiftpower_link,
		        zwiftracing_link = EXCLUDED.zwiftracing_link, preferred_leagues = EXCLUDED.preferred_leagues,
		        preferred_days = EXCLUDED.preferred_days, preferred_time = EXCLUDED.preferred_time,
		        rider_type = EXCLUDED.rider_type, discord_handle = EXCLUDED.discord_handle,
		        bio = EXCLUDED.bio`,
		p.UserID, p.DisplayName, p.Nation, p.MainCategory, p.RacingScore,
		p.SearchStatus, p.ZwiftpowerLink, p.ZwiftracingLink, p.PreferredLeagues, p.PreferredDays,
		p.PreferredTime, p.RiderType, p.DiscordHandle, p.Bio,
	)
	if err != nil {
		return fmt.Errorf("riderRepo.Upsert: %w", err)
	}
	return nil
}

func (r *RiderRepository) GetByUserID(ctx context.Context, userID string) (*model.RiderProfile, error) {
	defer logger.DeferLogDuration("rider.GetByUserID", time.Now())()
	p := &model.RiderProfile{}
	row := r.pool.QueryRow(ctx, `SELECT `+riderCols+` FROM rider_profiles WHERE user_id = $1`, userID)
	if err := scanRider(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("riderRepo.GetByUserID: %w", err)
	}
	return p, nil
}

// RiderFilter narrows the directory listing. Empty fields match everything.
type RiderFilter struct {
	Category     string
	Nation       string
	SearchStatus string
}

func (r *RiderRepository) List(ctx context.Context, f RiderFilter, limit int) ([]model.RiderProfile, error) {
	defer logger.DeferLogDuration("rider.List", time.Now())()
	sql := `SELECT ` + riderCols + ` FROM rider_profiles WHERE 1=1`
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		sql += fmt.Sprintf(` AND main_category = $%d`, len(args))
	}
	if f.Nation != "" {
		args = append(args, f.Nation)
		sql += fmt.Sprintf(` AND nation = $%d`, len(args))
	}
	if f.SearchStatus != "" {
		args = append(args, f.SearchStatus)
		sql += fmt.Sprintf(` AND search_status = $%d`, len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY display_name LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("riderRepo.List query: %w", err)
	}
	defer rows.Close()

	profiles := make([]model.RiderProfile, 0, limit)
	for rows.Next() {
		var p model.RiderProfile
		if err := scanRider(rows, &p); err != nil {
			return nil, fmt.Errorf("riderRepo.List scan: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("riderRepo.List rows: %w", err)
	}
	return profiles, nil
}
