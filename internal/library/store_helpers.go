package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ratingsync/internal/ratings"
)

const itemColumns = "id, name, kind, tmdb_id, imdb_id, community_rating, critic_rating, community_source, critic_source, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (Item, error) {
	var (
		id              string
		name            string
		kind            string
		tmdbID          sql.NullString
		imdbID          sql.NullString
		communityRating sql.NullFloat64
		criticRating    sql.NullInt64
		communitySource sql.NullString
		criticSource    sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&name,
		&kind,
		&tmdbID,
		&imdbID,
		&communityRating,
		&criticRating,
		&communitySource,
		&criticSource,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Item{}, err
	}

	item := Item{
		ID:              id,
		Name:            name,
		Kind:            Kind(kind),
		TMDBID:          tmdbID.String,
		IMDBID:          imdbID.String,
		CommunitySource: communitySource.String,
		CriticSource:    criticSource.String,
	}
	if communityRating.Valid {
		v := communityRating.Float64
		item.CommunityRating = &v
	}
	if criticRating.Valid {
		v := int(criticRating.Int64)
		item.CriticRating = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func replaceCollections(ctx context.Context, tx *sql.Tx, id string, collections []ratings.Collection) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM item_collections WHERE item_id = ?", id); err != nil {
		return fmt.Errorf("clear collections: %w", err)
	}
	for i, c := range collections {
		cid := strings.TrimSpace(c.ID)
		cname := strings.TrimSpace(c.Name)
		if cid == "" && cname == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO item_collections (item_id, position, collection_id, collection_name) VALUES (?, ?, ?, ?)",
			id, i, nullableString(cid), nullableString(cname),
		); err != nil {
			return fmt.Errorf("insert collection: %w", err)
		}
	}
	return nil
}

const collectionQueryBatch = 500

func (s *Store) collectionsFor(ctx context.Context, ids []string) (map[string][]ratings.Collection, error) {
	out := make(map[string][]ratings.Collection, len(ids))
	for start := 0; start < len(ids); start += collectionQueryBatch {
		end := min(start+collectionQueryBatch, len(ids))
		if err := s.loadCollections(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadCollections(ctx context.Context, ids []string, out map[string][]ratings.Collection) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT item_id, collection_id, collection_name FROM item_collections WHERE item_id IN ("+makePlaceholders(len(ids))+") ORDER BY item_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			itemID string
			cid    sql.NullString
			cname  sql.NullString
		)
		if err := rows.Scan(&itemID, &cid, &cname); err != nil {
			return fmt.Errorf("scan collection: %w", err)
		}
		out[itemID] = append(out[itemID], ratings.Collection{ID: cid.String, Name: cname.String})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate collections: %w", err)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
