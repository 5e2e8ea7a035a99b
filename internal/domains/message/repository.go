package message

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloggy-backend/internal/domains/message/model"
)

const messageColumns = `
	m.id, m.author_id, a.username, m.target_id, t.username,
	m.text, m.read, m.created_date, m.read_date`

type Repository interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error)
	ListInbox(ctx context.Context, targetID uuid.UUID, fromID *uuid.UUID, unreadOnly bool) ([]*model.Message, error)
	ListSent(ctx context.Context, authorID uuid.UUID) ([]*model.Message, error)
	UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, msg *model.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO private_messages (id, author_id, target_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING created_date
	`, msg.ID, msg.AuthorID, msg.TargetID, msg.Text).Scan(&msg.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*model.Message, error) {
	query := `
		SELECT` + messageColumns + `
		FROM private_messages m
		JOIN users a ON a.id = m.author_id
		JOIN users t ON t.id = m.target_id
		WHERE m.id = $1
	`

	var m model.Message
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.AuthorID, &m.Author, &m.TargetID, &m.Target,
		&m.Text, &m.Read, &m.CreatedDate, &m.ReadDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &m, nil
}

func (r *repository) ListInbox(ctx context.Context, targetID uuid.UUID, fromID *uuid.UUID, unreadOnly bool) ([]*model.Message, error) {
	query := `
		SELECT` + messageColumns + `
		FROM private_messages m
		JOIN users a ON a.id = m.author_id
		JOIN users t ON t.id = m.target_id
		WHERE m.target_id = $1
		AND ($2::uuid IS NULL OR m.author_id = $2)
	`
	if unreadOnly {
		query += ` AND NOT m.read`
	}
	query += ` ORDER BY m.created_date DESC`

	rows, err := r.db.Query(ctx, query, targetID, fromID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *repository) ListSent(ctx context.Context, authorID uuid.UUID) ([]*model.Message, error) {
	query := `
		SELECT` + messageColumns + `
		FROM private_messages m
		JOIN users a ON a.id = m.author_id
		JOIN users t ON t.id = m.target_id
		WHERE m.author_id = $1
		ORDER BY m.created_date DESC
	`

	rows, err := r.db.Query(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *repository) UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM private_messages WHERE target_id = $1 AND NOT read
	`, targetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead stamps the read time once. Re-reading keeps the original
// timestamp.
func (r *repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE private_messages
		SET read = TRUE, read_date = COALESCE(read_date, NOW())
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrMessageNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE private_messages
		SET read = TRUE, read_date = COALESCE(read_date, NOW())
		WHERE target_id = $1 AND NOT read
	`, targetID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func scanMessages(rows pgx.Rows) ([]*model.Message, error) {
	var messages []*model.Message
	for rows.Next() {
		var m model.Message
		err := rows.Scan(
			&m.ID, &m.AuthorID, &m.Author, &m.TargetID, &m.Target,
			&m.Text, &m.Read, &m.CreatedDate, &m.ReadDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
