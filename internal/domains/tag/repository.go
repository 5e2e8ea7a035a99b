package tag

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bloggy-backend/internal/domains/tag/model"
)

type Repository interface {
	GetOrCreate(ctx context.Context, name string, authorID uuid.UUID) (*model.Tag, error)
	EnsureExists(ctx context.Context, name string) error
	GetEntryTags(ctx context.Context, entryIDs []uuid.UUID) (map[uuid.UUID][]string, error)
	Get(ctx context.Context, name string, viewerID *uuid.UUID) (*model.TagView, error)
	List(ctx context.Context, viewerID *uuid.UUID) ([]*model.TagView, error)
	SetEntryTags(ctx context.Context, tx pgx.Tx, entryID uuid.UUID, names []string, authorID uuid.UUID) error
	GetObserverIDs(ctx context.Context, names []string) (map[string][]uuid.UUID, error)
	GetBlacklistedNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	ToggleObserve(ctx context.Context, name string, userID uuid.UUID) (bool, error)
	ToggleBlacklist(ctx context.Context, name string, userID uuid.UUID) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetOrCreate(ctx context.Context, name string, authorID uuid.UUID) (*model.Tag, error) {
	query := `
		INSERT INTO tags (name, author_id)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING name, author_id
	`

	var t model.Tag
	if err := r.db.QueryRow(ctx, query, name, authorID).Scan(&t.Name, &t.AuthorID); err != nil {
		return nil, fmt.Errorf("failed to get or create tag: %w", err)
	}

	return &t, nil
}

// EnsureExists creates an authorless tag row if none exists. Browsing
// a feed by tag materializes the tag even before anyone has used it.
func (r *repository) EnsureExists(ctx context.Context, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`, name)
	if err != nil {
		return fmt.Errorf("failed to ensure tag exists: %w", err)
	}
	return nil
}

// GetEntryTags returns the tag names of each listed entry.
func (r *repository) GetEntryTags(ctx context.Context, entryIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT entry_id, tag_name FROM entry_tags WHERE entry_id = ANY($1)
	`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry tags: %w", err)
	}
	defer rows.Close()

	tags := make(map[uuid.UUID][]string)
	for rows.Next() {
		var entryID uuid.UUID
		var name string
		if err := rows.Scan(&entryID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan entry tag: %w", err)
		}
		tags[entryID] = append(tags[entryID], name)
	}

	return tags, rows.Err()
}

func (r *repository) Get(ctx context.Context, name string, viewerID *uuid.UUID) (*model.TagView, error) {
	query := `
		SELECT t.name,
			(SELECT COUNT(*) FROM entry_tags et JOIN entries e ON e.id = et.entry_id
				WHERE et.tag_name = t.name AND NOT e.deleted),
			(SELECT COUNT(*) FROM tag_observers o WHERE o.tag_name = t.name),
			EXISTS (SELECT 1 FROM tag_observers o WHERE o.tag_name = t.name AND o.user_id = $2),
			EXISTS (SELECT 1 FROM tag_blacklisters b WHERE b.tag_name = t.name AND b.user_id = $2)
		FROM tags t
		WHERE t.name = $1
	`

	var v model.TagView
	err := r.db.QueryRow(ctx, query, name, viewerID).Scan(
		&v.Name, &v.EntryCount, &v.ObserverCount, &v.Observed, &v.Blacklisted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	return &v, nil
}

func (r *repository) List(ctx context.Context, viewerID *uuid.UUID) ([]*model.TagView, error) {
	query := `
		SELECT t.name,
			(SELECT COUNT(*) FROM entry_tags et JOIN entries e ON e.id = et.entry_id
				WHERE et.tag_name = t.name AND NOT e.deleted),
			(SELECT COUNT(*) FROM tag_observers o WHERE o.tag_name = t.name),
			EXISTS (SELECT 1 FROM tag_observers o WHERE o.tag_name = t.name AND o.user_id = $1),
			EXISTS (SELECT 1 FROM tag_blacklisters b WHERE b.tag_name = t.name AND b.user_id = $1)
		FROM tags t
		ORDER BY t.name
	`

	rows, err := r.db.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var views []*model.TagView
	for rows.Next() {
		var v model.TagView
		err := rows.Scan(&v.Name, &v.EntryCount, &v.ObserverCount, &v.Observed, &v.Blacklisted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		views = append(views, &v)
	}

	return views, rows.Err()
}

// SetEntryTags rebuilds the tag set of an entry inside the caller's
// transaction. Existing links are cleared first so re-saving an entry
// is idempotent.
func (r *repository) SetEntryTags(ctx context.Context, tx pgx.Tx, entryID uuid.UUID, names []string, authorID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM entry_tags WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("failed to clear entry tags: %w", err)
	}

	for _, name := range names {
		_, err := tx.Exec(ctx, `
			INSERT INTO tags (name, author_id) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, authorID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO entry_tags (entry_id, tag_name) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, entryID, name)
		if err != nil {
			return fmt.Errorf("failed to link tag %q: %w", name, err)
		}
	}

	return nil
}

func (r *repository) GetObserverIDs(ctx context.Context, names []string) (map[string][]uuid.UUID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `
		SELECT tag_name, user_id
		FROM tag_observers
		WHERE tag_name = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag observers: %w", err)
	}
	defer rows.Close()

	observers := make(map[string][]uuid.UUID)
	for rows.Next() {
		var name string
		var userID uuid.UUID
		if err := rows.Scan(&name, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan tag observer: %w", err)
		}
		observers[name] = append(observers[name], userID)
	}

	return observers, rows.Err()
}

func (r *repository) GetBlacklistedNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `SELECT tag_name FROM tag_blacklisters WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blacklisted tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan blacklisted tag: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// ToggleObserve flips the observer relation. Turning it on also clears
// any blacklist entry for the same tag; observing and blacklisting are
// mutually exclusive. Returns the new observed state.
func (r *repository) ToggleObserve(ctx context.Context, name string, userID uuid.UUID) (bool, error) {
	var observed bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.upsertTag(ctx, tx, name); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			DELETE FROM tag_observers WHERE tag_name = $1 AND user_id = $2
		`, name, userID)
		if err != nil {
			return fmt.Errorf("failed to remove observer: %w", err)
		}
		if cmd.RowsAffected() > 0 {
			observed = false
			return nil
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM tag_blacklisters WHERE tag_name = $1 AND user_id = $2
		`, name, userID); err != nil {
			return fmt.Errorf("failed to clear blacklist: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tag_observers (tag_name, user_id) VALUES ($1, $2)
		`, name, userID); err != nil {
			return fmt.Errorf("failed to add observer: %w", err)
		}

		observed = true
		return nil
	})

	return observed, err
}

// ToggleBlacklist mirrors ToggleObserve for the blacklist relation.
func (r *repository) ToggleBlacklist(ctx context.Context, name string, userID uuid.UUID) (bool, error) {
	var blacklisted bool
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := r.upsertTag(ctx, tx, name); err != nil {
			return err
		}

		cmd, err := tx.Exec(ctx, `
			DELETE FROM tag_blacklisters WHERE tag_name = $1 AND user_id = $2
		`, name, userID)
		if err != nil {
			return fmt.Errorf("failed to remove blacklister: %w", err)
		}
		if cmd.RowsAffected() > 0 {
			blacklisted = false
			return nil
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM tag_observers WHERE tag_name = $1 AND user_id = $2
		`, name, userID); err != nil {
			return fmt.Errorf("failed to clear observer: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO tag_blacklisters (tag_name, user_id) VALUES ($1, $2)
		`, name, userID); err != nil {
			return fmt.Errorf("failed to add blacklister: %w", err)
		}

		blacklisted = true
		return nil
	})

	return blacklisted, err
}

// upsertTag creates the authorless tag row when it does not exist yet
// and locks it for the rest of the toggle transaction. Observing or
// blacklisting an unknown name materializes the tag. The no-op update
// on conflict is what acquires the row lock.
func (r *repository) upsertTag(ctx context.Context, tx pgx.Tx, name string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO tags (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
	`, name)
	if err != nil {
		return fmt.Errorf("failed to upsert tag: %w", err)
	}
	return nil
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
