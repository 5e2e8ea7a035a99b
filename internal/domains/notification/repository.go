package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloggy-backend/internal/domains/notification/model"
)

type Repository interface {
	BulkCreate(ctx context.Context, notifications []*model.Notification) error
	ListByTarget(ctx context.Context, targetID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error)
	DeleteByObject(ctx context.Context, kind model.ObjectKind, objectID uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) BulkCreate(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, n := range notifications {
		batch.Queue(`
			INSERT INTO notifications (id, type, sender_id, target_id, object_kind, object_id, content)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, n.ID, n.Type, n.SenderID, n.TargetID, n.ObjectKind, n.ObjectID, n.Content)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to create notifications: %w", err)
		}
	}

	return nil
}

func (r *repository) ListByTarget(ctx context.Context, targetID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	query := `
		SELECT id, type, sender_id, target_id, object_kind, object_id, COALESCE(content, ''), read, created_date
		FROM notifications
		WHERE target_id = $1
	`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_date DESC`

	rows, err := r.db.Query(ctx, query, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows)
}

func (r *repository) UnreadCount(ctx context.Context, targetID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE target_id = $1 AND NOT read
	`, targetID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT id, type, sender_id, target_id, object_kind, object_id, COALESCE(content, ''), read, created_date
		FROM notifications
		WHERE id = $1
	`

	var n model.Notification
	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID, &n.Type, &n.SenderID, &n.TargetID, &n.ObjectKind, &n.ObjectID,
		&n.Content, &n.Read, &n.CreatedDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &n, nil
}

// MarkRead is one-way; a read notification never goes back to unread.
func (r *repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotificationNotFound
	}
	return nil
}

func (r *repository) MarkAllRead(ctx context.Context, targetID uuid.UUID) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE target_id = $1 AND NOT read
	`, targetID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *repository) DeleteByObject(ctx context.Context, kind model.ObjectKind, objectID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM notifications WHERE object_kind = $1 AND object_id = $2
	`, kind, objectID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications for object: %w", err)
	}
	return nil
}

func scanNotifications(rows pgx.Rows) ([]*model.Notification, error) {
	var notifications []*model.Notification
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID, &n.Type, &n.SenderID, &n.TargetID, &n.ObjectKind, &n.ObjectID,
			&n.Content, &n.Read, &n.CreatedDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}
