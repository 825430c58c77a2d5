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

type ContactRepository struct {
	pool *pgxpool.Pool
}

func NewContactRepository(pool *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactCols = `cr.id, cr.from_user_id, cr.to_user_id, cr.team_id, cr.opening_id,
	        cr.message, cr.status, cr.created_at, t.owner_id, t.name`

func scanContact(s interface{ Scan(dest ...any) error }, c *model.ContactRequest) error {
	return s.Scan(&c.ID, &c.FromUserID, &c.ToUserID, &c.TeamID, &c.OpeningID,
		&c.Message, &c.Status, &c.CreatedAt, &c.TeamOwnerID, &c.TeamName)
}

func (r *ContactRepository) Create(ctx context.Context, c *model.ContactRequest) error {
	defer logger.DeferLogDuration("contact.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO contact_requests (id, from_user_id, to_user_id, team_id, opening_id, message, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.FromUserID, c.ToUserID, c.TeamID, c.OpeningID, c.Message, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("contactRepo.Create: %w", err)
	}
	return nil
}

// GetByID loads the application together with the owning team's owner id and
// name, so callers can resolve all three sides of the thread in one read.
func (r *ContactRepository) GetByID(ctx context.Context, id string) (*model.ContactRequest, error) {
	defer logger.DeferLogDuration("contact.GetByID", time.Now())()
	c := &model.ContactRequest{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+contactCols+`
		 FROM contact_requests cr
		 JOIN teams t ON t.id = cr.team_id
		 WHERE cr.id = $1`, id,
	)
	if err := scanContact(row, c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("contactRepo.GetByID: %w", err)
	}
	return c, nil
}

// UpdateStatus sets the application status. Status values are stored
// lowercase; validation happens above the repository.
func (r *ContactRepository) UpdateStatus(ctx context.Context, id string, status model.ContactStatus) error {
	defer logger.DeferLogDuration("contact.UpdateStatus", time.Now())()
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_requests SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("contactRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListForUser returns every thread the user participates in, newest first:
// applications they sent, were addressed, or received as team owner.
func (r *ContactRepository) ListForUser(ctx context.Context, userID string) ([]model.ContactRequest, error) {
	defer logger.DeferLogDuration("contact.ListForUser", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactCols+`
		 FROM contact_requests cr
		 JOIN teams t ON t.id = cr.team_id
		 WHERE cr.from_user_id = $1 OR cr.to_user_id = $1 OR t.owner_id = $1
		 ORDER BY cr.created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("contactRepo.ListForUser query: %w", err)
	}
	defer rows.Close()

	contacts := make([]model.ContactRequest, 0, 16)
	for rows.Next() {
		var c model.ContactRequest
		if err := scanContact(rows, &c); err != nil {
			return nil, fmt.Errorf("contactRepo.ListForUser scan: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contactRepo.ListForUser rows: %w", err)
	}
	return contacts, nil
}

// PendingCountForUser counts pending applications addressed to the user,
// directly or via team ownership. Drives the layout badge.
func (r *ContactRepository) PendingCountForUser(ctx context.Context, userID string) (int, error) {
	defer logger.DeferLogDuration("contact.PendingCountForUser", time.Now())()
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM contact_requests cr
		 JOIN teams t ON t.id = cr.team_id
		 WHERE cr.status = 'pending'
		   AND cr.from_user_id != $1
		   AND (cr.to_user_id = $1 OR t.owner_id = $1)`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("contactRepo.PendingCountForUser: %w", err)
	}
	return count, nil
}
