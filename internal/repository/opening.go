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

const openingCols = `o.id, o.team_id, o.title, COALESCE(o.league,''), COALESCE(o.category,''),
	        COALESCE(o.description,''), o.days, COALESCE(o.timezone,''), o.created_at`

type OpeningRepository struct {
	pool *pgxpool.Pool
}

func NewOpeningRepository(pool *pgxpool.Pool) *OpeningRepository {
	return &OpeningRepository{pool: pool}
}

func scanOpening(s interface{ Scan(dest ...any) error }, o *model.Opening) error {
	return s.Scan(&o.ID, &o.TeamID, &o.Title, &o.League, &o.Category,
		&o.Description, &o.Days, &o.Timezone, &o.CreatedAt)
}

func (r *OpeningRepository) Create(ctx context.Context, o *model.Opening) error {
	defer logger.DeferLogDuration("opening.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO team_openings (id, team_id, title, league, category, description, days, timezone, created_at)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), $7, NULLIF($8,''), $9)`,
		o.ID, o.TeamID, o.Title, o.League, o.Category, o.Description, o.Days, o.Timezone, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("openingRepo.Create: %w", err)
	}
	return nil
}

// GetByID loads an opening together with its team (owner resolution and
// listing cards both need it).
func (r *OpeningRepository) GetByID(ctx context.Context, id string) (*model.Opening, error) {
	defer logger.DeferLogDuration("opening.GetByID", time.Now())()
	o := &model.Opening{}
	t := &model.Team{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+openingCols+`,
		        t.id, t.owner_id, t.name, COALESCE(t.nation,''), COALESCE(t.description,''),
		        COALESCE(t.discord_link,''), COALESCE(t.website,''), COALESCE(t.logo_url,''), t.leagues, t.created_at
		 FROM team_openings o
		 JOIN teams t ON t.id = o.team_id
		 WHERE o.id = $1`, id,
	).Scan(&o.ID, &o.TeamID, &o.Title, &o.League, &o.Category,
		&o.Description, &o.Days, &o.Timezone, &o.CreatedAt,
		&t.ID, &t.OwnerID, &t.Name, &t.Nation, &t.Description,
		&t.DiscordLink, &t.Website, &t.LogoURL, &t.Leagues, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("openingRepo.GetByID: %w", err)
	}
	o.Team = t
	return o, nil
}

func (r *OpeningRepository) Update(ctx context.Context, o *model.Opening) error {
	defer logger.DeferLogDuration("opening.Update", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE team_openings SET title = $1, league = NULLIF($2,''), category = NULLIF($3,''),
		        description = NULLIF($4,''), days = $5, timezone = NULLIF($6,'')
		 WHERE id = $7`,
		o.Title, o.League, o.Category, o.Description, o.Days, o.Timezone, o.ID,
	)
	if err != nil {
		return fmt.Errorf("openingRepo.Update: %w", err)
	}
	return nil
}

func (r *OpeningRepository) Delete(ctx context.Context, id string) error {
	defer logger.DeferLogDuration("opening.Delete", time.Now())()
	_, err := r.pool.Exec(ctx, `DELETE FROM team_openings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("openingRepo.Delete: %w", err)
	}
	return nil
}

// OpeningFilter narrows the openings directory. Empty fields match everything.
type OpeningFilter struct {
	League   string
	Category string
	TeamID   string
}

func (r *OpeningRepository) List(ctx context.Context, f OpeningFilter, limit int) ([]model.Opening, error) {
	defer logger.DeferLogDuration("opening.List", time.Now())()
	sql := `SELECT ` + openingCols + ` FROM team_openings o WHERE 1=1`
	args := []any{}
	if f.League != "" {
		args = append(args, f.League)
		sql += fmt.Sprintf(` AND o.league = $%d`, len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		sql += fmt.Sprintf(` AND o.category = $%d`, len(args))
	}
	if f.TeamID != "" {
		args = append(args, f.TeamID)
		sql += fmt.Sprintf(` AND o.team_id = $%d`, len(args))
	}
	args = append(args, limit)
	sql += fmt.Sprintf(` ORDER BY o.created_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("openingRepo.List query: %w", err)
	}
	defer rows.Close()

	openings := make([]model.Opening, 0, limit)
	for rows.Next() {
		var o model.Opening
		if err := scanOpening(rows, &o); err != nil {
			return nil, fmt.Errorf("openingRepo.List scan: %w", err)
		}
		openings = append(openings, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("openingRepo.List rows: %w", err)
	}
	return openings, nil
}
