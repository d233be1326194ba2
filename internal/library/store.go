package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ratingsync/internal/config"
	"ratingsync/internal/ratings"
	"ratingsync/internal/services"
)

// Store manages library persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open initializes or connects to the library database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.Paths.LibraryDB)
}

// OpenPath opens the database at dbPath. The parent directory must exist.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, now: time.Now}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a new item. A blank ID is replaced with a random UUID.
func (s *Store) Add(ctx context.Context, item Item) (Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	item.TMDBID = strings.TrimSpace(item.TMDBID)
	item.IMDBID = strings.TrimSpace(item.IMDBID)
	if err := item.validate(); err != nil {
		return Item{}, err
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Item{}, fmt.Errorf("begin add tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (
            id, name, kind, tmdb_id, imdb_id, community_rating, critic_rating,
            community_source, critic_source, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.Name,
		string(item.Kind),
		nullableString(item.TMDBID),
		nullableString(item.IMDBID),
		nullableFloat(item.CommunityRating),
		nullableInt(item.CriticRating),
		nullableString(item.CommunitySource),
		nullableString(item.CriticSource),
		timestamp,
		timestamp,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Item{}, services.Wrap(services.ErrValidation, "library", "add item",
				fmt.Sprintf("item %q already exists", item.ID), err)
		}
		return Item{}, fmt.Errorf("insert item: %w", err)
	}
	if err := replaceCollections(ctx, tx, item.ID, item.Collections); err != nil {
		return Item{}, err
	}
	if err := tx.Commit(); err != nil {
		return Item{}, fmt.Errorf("commit add: %w", err)
	}
	return s.Get(ctx, item.ID)
}

// Get returns the item with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, services.Wrap(services.ErrNotFound, "library", "get item", fmt.Sprintf("no item %q", id), nil)
		}
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	collections, err := s.collectionsFor(ctx, []string{item.ID})
	if err != nil {
		return Item{}, err
	}
	item.Collections = collections[item.ID]
	return item, nil
}

// ListOptions filters List results. Zero values match everything.
type ListOptions struct {
	Kind        Kind
	MissingOnly bool
}

// List returns items ordered by name.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Item, error) {
	query := "SELECT " + itemColumns + " FROM items"
	var (
		clauses []string
		args    []any
	)
	if opts.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(opts.Kind))
	}
	if opts.MissingOnly {
		clauses = append(clauses, "(community_rating IS NULL OR community_rating <= 0 OR (kind = 'movie' AND (critic_rating IS NULL OR critic_rating <= 0)))")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	collections, err := s.collectionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Collections = collections[items[i].ID]
	}
	return items, nil
}

// Save writes the mutable fields of an existing item.
func (s *Store) Save(ctx context.Context, item Item) error {
	timestamp := s.now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET
            name = ?, tmdb_id = ?, imdb_id = ?, community_rating = ?, critic_rating = ?,
            community_source = ?, critic_source = ?, updated_at = ?
        WHERE id = ?`,
		item.Name,
		nullableString(item.TMDBID),
		nullableString(item.IMDBID),
		nullableFloat(item.CommunityRating),
		nullableInt(item.CriticRating),
		nullableString(item.CommunitySource),
		nullableString(item.CriticSource),
		timestamp,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "library", "save item", fmt.Sprintf("no item %q", item.ID), nil)
	}
	return nil
}

// SetCollections replaces the collections of an item.
func (s *Store) SetCollections(ctx context.Context, id string, collections []ratings.Collection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin collections tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM items WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("check item: %w", err)
	}
	if exists == 0 {
		return services.Wrap(services.ErrNotFound, "library", "set collections", fmt.Sprintf("no item %q", id), nil)
	}
	if err := replaceCollections(ctx, tx, id, collections); err != nil {
		return err
	}
	return tx.Commit()
}

// Remove deletes an item and its collection memberships.
func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "library", "remove item", fmt.Sprintf("no item %q", id), nil)
	}
	return nil
}
