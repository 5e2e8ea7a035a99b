package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloggy-backend/internal/domains/user/model"
)

type Repository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByUsernames(ctx context.Context, usernames []string) ([]*model.User, error)
	GetPointsBreakdown(ctx context.Context, id uuid.UUID) (*model.PointsBreakdown, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
	).Scan(&user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "idx_users_email" {
				return model.ErrEmailTaken
			}
			return model.ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *repository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`

	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

// GetByUsernames resolves usernames in bulk. Matching is
// case-insensitive, like GetByUsername; unknown names are simply
// absent from the result.
func (r *repository) GetByUsernames(ctx context.Context, usernames []string) ([]*model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(usernames))
	for i, name := range usernames {
		lowered[i] = strings.ToLower(name)
	}

	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE LOWER(username) = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, lowered)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by usernames: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var u model.User
		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	return users, rows.Err()
}

// GetPointsBreakdown counts every entry row the user authored,
// soft-deleted ones included; their rows and votes survive deletion.
func (r *repository) GetPointsBreakdown(ctx context.Context, id uuid.UUID) (*model.PointsBreakdown, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM entries WHERE user_id = $1),
			(SELECT COUNT(*) FROM entry_votes v JOIN entries e ON e.id = v.entry_id
				WHERE e.user_id = $1 AND v.vote_type = 'up'),
			(SELECT COUNT(*) FROM entry_votes v JOIN entries e ON e.id = v.entry_id
				WHERE e.user_id = $1 AND v.vote_type = 'down')
	`

	var b model.PointsBreakdown
	err := r.db.QueryRow(ctx, query, id).Scan(&b.AuthoredCount, &b.UpvotesReceived, &b.DownvotesReceived)
	if err != nil {
		return nil, fmt.Errorf("failed to get points breakdown: %w", err)
	}

	return &b, nil
}

func (r *repository) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
