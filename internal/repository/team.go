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

const teamCols = `id, owner_id, name, COALESCE(nation,''), COALESCE(description,''),
	        COALESCE(discord_link,''), COALESCE(website,''), COALESCE(logo_url,''), leagues, created_at`

type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func scanTeam(s interface{ Scan(dest ...any) error }, t *model.Team) error {
	return s.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Nation, &t.Description,
		&t.DiscordLink, &t.Website, &t.LogoURL, &t.Leagues, &t.CreatedAt)
}

func (r *TeamRepository) Create(ctx context.Context, t *model.Team) error {
	defer logger.DeferLogDuration("team.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teams (id, owner_id, name, nation, description, discord_link, website, logo_url, leagues, created_at)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), $9, $10)`,
		t.ID, t.OwnerID, t.Name, t.Nation, t.Description, t.DiscordLink, t.Website, t.LogoURL, t.Leagues, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.Create: %w", err)
	}
	return nil
}

func (r *TeamRepository) Update(ctx context.Context, t *model.Team) error {
	defer logger.DeferLogDuration("team.Update", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE teams SET name = $1, nation = NULLIF($2,''), description = NULLIF($3,''),
		        discord_link = NULLIF($4,''), website = NULLIF($5,''), leagues = $6
		 WHERE id = $7`,
		t.Name, t.Nation, t.Description, t.DiscordLink, t.Website, t.Leagues, t.ID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.Update: %w", err)
	}
	return nil
}

func (r *TeamRepository) GetByID(ctx context.Context, id string) (*model.Team, error) {
	defer logger.DeferLogDuration("team.GetByID", time.Now())()
	t := &model.Team{}
	row := r.pool.QueryRow(ctx, `SELECT `+teamCols+` FROM teams WHERE id = $1`, id)
	if err := scanTeam(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("teamRepo.GetByID: %w", err)
	}
	return t, nil
}

// GetByOwner returns the user's team. One team per owner.
func (r *TeamRepository) GetByOwner(ctx context.Context, ownerID string) (*model.Team, error) {
	defer logger.DeferLogDuration("team.GetByOwner", time.Now())()
	t := &model.Team{}
	row := r.pool.QueryRow(ctx, `SELECT `+teamCols+` FROM teams WHERE owner_id = $1`, ownerID)
	if err := scanTeam(row, t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("teamRepo.GetByOwner: %w", err)
	}
	return t, nil
}

func (r *TeamRepository) List(ctx context.Context, limit int) ([]model.Team, error) {
	defer logger.DeferLogDuration("team.List", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+teamCols+` FROM teams ORDER BY created_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("teamRepo.List query: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0, limit)
	for rows.Next() {
		var t model.Team
		if err := scanTeam(rows, &t); err != nil {
			return nil, fmt.Errorf("teamRepo.List scan: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("teamRepo.List rows: %w", err)
	}
	return teams, nil
}

// SetLogoURL stores the public URL of an uploaded logo.
func (r *TeamRepository) SetLogoURL(ctx context.Context, teamID, url string) error {
	defer logger.DeferLogDuration("team.SetLogoURL", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE teams SET logo_url = $1 WHERE id = $2`, url, teamID,
	)
	if err != nil {
		return fmt.Errorf("teamRepo.SetLogoURL: %w", err)
	}
	return nil
}
