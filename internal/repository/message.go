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

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	defer logger.DeferLogDuration("msg.Create", time.Now())()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, contact_request_id, sender_id, text, seen_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ContactRequestID, m.SenderID, m.Text, m.SeenAt, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.Create: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*model.Message, error) {
	defer logger.DeferLogDuration("msg.GetByID", time.Now())()
	m := &model.Message{}
	err := r.pool.QueryRow(ctx,
		`SELECT m.id, m.contact_request_id, m.sender_id, u.name, m.text, m.seen_at, m.created_at
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.id = $1`, id,
	).Scan(&m.ID, &m.ContactRequestID, &m.SenderID, &m.SenderName, &m.Text, &m.SeenAt, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("msgRepo.GetByID: %w", err)
	}
	return m, nil
}

// ListByContact returns the full thread in send order. Creation time
// ascending, ties broken by id; never re-sorted by any other key.
func (r *MessageRepository) ListByContact(ctx context.Context, contactRequestID string) ([]model.Message, error) {
	defer logger.DeferLogDuration("msg.ListByContact", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.contact_request_id, m.sender_id, u.name, m.text, m.seen_at, m.created_at
		 FROM messages m
		 JOIN users u ON u.id = m.sender_id
		 WHERE m.contact_request_id = $1
		 ORDER BY m.created_at ASC, m.id ASC`, contactRequestID,
	)
	if err != nil {
		return nil, fmt.Errorf("msgRepo.ListByContact query: %w", err)
	}
	defer rows.Close()

	messages := make([]model.Message, 0, 32)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ContactRequestID, &m.SenderID, &m.SenderName, &m.Text, &m.SeenAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("msgRepo.ListByContact scan: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("msgRepo.ListByContact rows: %w", err)
	}
	return messages, nil
}

// MarkSeen stamps every unseen message in the thread not sent by readerID.
// The seen_at IS NULL guard keeps the marker monotonic: once set it is never
// cleared or moved, no transaction needed around the retrieval sequence.
func (r *MessageRepository) MarkSeen(ctx context.Context, contactRequestID, readerID string, at time.Time) error {
	defer logger.DeferLogDuration("msg.MarkSeen", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET seen_at = $1
		 WHERE contact_request_id = $2 AND sender_id != $3 AND seen_at IS NULL`,
		at, contactRequestID, readerID,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.MarkSeen: %w", err)
	}
	return nil
}

// LastSeenFromSender returns the id of the newest message by senderID in the
// thread that the other side has seen (ordered by seen_at descending).
// Empty string when none qualifies.
func (r *MessageRepository) LastSeenFromSender(ctx context.Context, contactRequestID, senderID string) (string, error) {
	defer logger.DeferLogDuration("msg.LastSeenFromSender", time.Now())()
	var id string
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM messages
		 WHERE contact_request_id = $1 AND sender_id = $2 AND seen_at IS NOT NULL
		 ORDER BY seen_at DESC, id DESC
		 LIMIT 1`, contactRequestID, senderID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("msgRepo.LastSeenFromSender: %w", err)
	}
	return id, nil
}

// UpdateText edits a message in place. Sender-only; enforced above.
func (r *MessageRepository) UpdateText(ctx context.Context, id, text string) error {
	defer logger.DeferLogDuration("msg.UpdateText", time.Now())()
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET text = $1 WHERE id = $2`,
		text, id,
	)
	if err != nil {
		return fmt.Errorf("msgRepo.UpdateText: %w", err)
	}
	return nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	defer logger.DeferLogDuration("msg.Delete", time.Now())()
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("msgRepo.Delete: %w", err)
	}
	return nil
}
