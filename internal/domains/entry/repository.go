package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloggy-backend/internal/domains/entry/model"
	"bloggy-backend/internal/domains/tag"
)

// entryColumns is the shared projection for entry reads. $N placeholders
// for the viewer id are bound by each query.
const entryColumns = `
	e.id, e.user_id, u.username, e.parent_id, e.content, e.content_formatted,
	e.created_date, e.modified_date, e.deleted,
	(SELECT COUNT(*) FROM entry_votes v WHERE v.entry_id = e.id AND v.vote_type = 'up'),
	(SELECT COUNT(*) FROM entry_votes v WHERE v.entry_id = e.id AND v.vote_type = 'down'),
	(SELECT COUNT(*) FROM entries c WHERE c.parent_id = e.id),
	(SELECT v.vote_type FROM entry_votes v WHERE v.entry_id = e.id AND v.user_id = $2)`

type Repository interface {
	Create(ctx context.Context, entry *model.Entry, tags []string) error
	Update(ctx context.Context, entry *model.Entry, tags []string) error
	GetByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*model.Entry, error)
	ListThread(ctx context.Context, rootID uuid.UUID, viewerID *uuid.UUID) ([]*model.Entry, error)
	ListRoots(ctx context.Context, tagName *string, viewerID *uuid.UUID) ([]*model.Entry, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, viewerID *uuid.UUID) ([]*model.Entry, error)
	Delete(ctx context.Context, entry *model.Entry) (soft bool, err error)
	ToggleVote(ctx context.Context, entryID, userID uuid.UUID, voteType model.VoteType) error
	GetTags(ctx context.Context, entryID uuid.UUID) ([]string, error)
}

type repository struct {
	db   *pgxpool.Pool
	tags tag.Repository
}

func NewRepository(db *pgxpool.Pool, tags tag.Repository) Repository {
	return &repository{db: db, tags: tags}
}

// Create inserts the entry, links its tags and records the author's
// automatic upvote, all in one transaction.
func (r *repository) Create(ctx context.Context, entry *model.Entry, tags []string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO entries (id, user_id, parent_id, content, content_formatted)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_date
		`, entry.ID, entry.UserID, entry.ParentID, entry.Content, entry.ContentFormatted,
		).Scan(&entry.CreatedDate)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}

		if err := r.tags.SetEntryTags(ctx, tx, entry.ID, tags, entry.UserID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO entry_votes (entry_id, user_id, vote_type)
			VALUES ($1, $2, 'up')
		`, entry.ID, entry.UserID)
		if err != nil {
			return fmt.Errorf("failed to record author upvote: %w", err)
		}

		return nil
	})
}

// Update rewrites content and rebuilds the tag set. The tag links are
// cleared and re-added so the operation is idempotent.
func (r *repository) Update(ctx context.Context, entry *model.Entry, tags []string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var modified time.Time
		err := tx.QueryRow(ctx, `
			UPDATE entries
			SET content = $2, content_formatted = $3, modified_date = NOW()
			WHERE id = $1
			RETURNING modified_date
		`, entry.ID, entry.Content, entry.ContentFormatted).Scan(&modified)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrEntryNotFound
			}
			return fmt.Errorf("failed to update entry: %w", err)
		}
		entry.ModifiedDate = &modified

		return r.tags.SetEntryTags(ctx, tx, entry.ID, tags, entry.UserID)
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*model.Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.id = $1
	`

	e, err := scanEntry(r.db.QueryRow(ctx, query, id, viewerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListThread returns every entry of the tree rooted at rootID, the
// root included. Ordering within the thread is rebuilt by the caller.
func (r *repository) ListThread(ctx context.Context, rootID uuid.UUID, viewerID *uuid.UUID) ([]*model.Entry, error) {
	query := `
		WITH RECURSIVE thread AS (
			SELECT e.id FROM entries e WHERE e.id = $1
			UNION ALL
			SELECT e.id FROM entries e JOIN thread t ON e.parent_id = t.id
		)
		SELECT` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.id IN (SELECT id FROM thread)
		ORDER BY e.created_date
	`

	rows, err := r.db.Query(ctx, query, rootID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list thread: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListRoots returns all top-level entries, optionally restricted to a
// tag, newest first. Ranking and pagination happen in the feed layer.
func (r *repository) ListRoots(ctx context.Context, tagName *string, viewerID *uuid.UUID) ([]*model.Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.parent_id IS NULL
		AND ($1::text IS NULL OR EXISTS (
			SELECT 1 FROM entry_tags et WHERE et.entry_id = e.id AND et.tag_name = $1
		))
		ORDER BY e.created_date DESC
	`

	rows, err := r.db.Query(ctx, query, tagName, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roots: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *repository) ListByAuthor(ctx context.Context, authorID uuid.UUID, viewerID *uuid.UUID) ([]*model.Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM entries e
		JOIN users u ON u.id = e.user_id
		WHERE e.user_id = $1 AND NOT e.deleted
		ORDER BY e.created_date DESC
	`

	rows, err := r.db.Query(ctx, query, authorID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries by author: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Delete archives the entry and removes it. An entry with children is
// soft-deleted so the subtree stays readable; a leaf is removed
// outright. The archive row is written at most once, so deleting an
// already soft-deleted entry never produces a second snapshot.
func (r *repository) Delete(ctx context.Context, entry *model.Entry) (bool, error) {
	var soft bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if !entry.Deleted {
			if err := r.archive(ctx, tx, entry); err != nil {
				return err
			}
		}

		var hasChildren bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM entries WHERE parent_id = $1)
		`, entry.ID).Scan(&hasChildren)
		if err != nil {
			return fmt.Errorf("failed to check for children: %w", err)
		}

		if hasChildren {
			_, err := tx.Exec(ctx, `
				UPDATE entries
				SET content = $2, content_formatted = $2, deleted = TRUE
				WHERE id = $1
			`, entry.ID, model.DeletedContent)
			if err != nil {
				return fmt.Errorf("failed to soft delete entry: %w", err)
			}
			soft = true
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM entries WHERE id = $1`, entry.ID); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		return nil
	})

	return soft, err
}

func (r *repository) archive(ctx context.Context, tx pgx.Tx, entry *model.Entry) error {
	var upvoters, downvoters []uuid.UUID
	err := tx.QueryRow(ctx, `
		SELECT
			COALESCE(ARRAY(SELECT user_id FROM entry_votes WHERE entry_id = $1 AND vote_type = 'up'), '{}'),
			COALESCE(ARRAY(SELECT user_id FROM entry_votes WHERE entry_id = $1 AND vote_type = 'down'), '{}')
	`, entry.ID).Scan(&upvoters, &downvoters)
	if err != nil {
		return fmt.Errorf("failed to collect voters: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO deleted_entries (id, old_id, user_id, parent_id, content, upvoter_ids, downvoter_ids, created_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), entry.ID, entry.UserID, entry.ParentID, entry.Content, upvoters, downvoters, entry.CreatedDate)
	if err != nil {
		return fmt.Errorf("failed to archive entry: %w", err)
	}

	return nil
}

// ToggleVote applies one vote action. Voting the same way again
// removes the vote (un-vote); voting the opposite way switches it;
// otherwise the vote is recorded.
func (r *repository) ToggleVote(ctx context.Context, entryID, userID uuid.UUID, voteType model.VoteType) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var scanned *string
		err := tx.QueryRow(ctx, `
			SELECT vote_type FROM entry_votes
			WHERE entry_id = $1 AND user_id = $2
			FOR UPDATE
		`, entryID, userID).Scan(&scanned)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to read existing vote: %w", err)
		}

		var existing *model.VoteType
		if scanned != nil {
			v := model.VoteType(*scanned)
			existing = &v

			_, err := tx.Exec(ctx, `
				DELETE FROM entry_votes WHERE entry_id = $1 AND user_id = $2
			`, entryID, userID)
			if err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
		}

		next := model.NextVote(existing, voteType)
		if next == nil {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO entry_votes (entry_id, user_id, vote_type)
			VALUES ($1, $2, $3)
		`, entryID, userID, *next)
		if err != nil {
			return fmt.Errorf("failed to record vote: %w", err)
		}
		return nil
	})
}

func (r *repository) GetTags(ctx context.Context, entryID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT tag_name FROM entry_tags WHERE entry_id = $1 ORDER BY tag_name
	`, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

func (r *repository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanEntry(row pgx.Row) (*model.Entry, error) {
	var e model.Entry
	err := row.Scan(
		&e.ID, &e.UserID, &e.Author, &e.ParentID, &e.Content, &e.ContentFormatted,
		&e.CreatedDate, &e.ModifiedDate, &e.Deleted,
		&e.Upvotes, &e.Downvotes, &e.DirectChildren, &e.UserVote,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEntries(rows pgx.Rows) ([]*model.Entry, error) {
	var entries []*model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
