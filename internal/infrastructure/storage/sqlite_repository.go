package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nori266/hn-filtered/internal/domain"
	"github.com/nori266/hn-filtered/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	url          TEXT NOT NULL,
	source       TEXT NOT NULL,
	published_at TIMESTAMP,
	verified     INTEGER NOT NULL DEFAULT 0,
	is_relevant  INTEGER NOT NULL DEFAULT 0,
	matches      TEXT NOT NULL DEFAULT '[]',
	rationale    TEXT NOT NULL DEFAULT '',
	verified_at  TIMESTAMP,
	created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_items_relevant ON items (is_relevant, published_at DESC);
`

// SQLiteRepository is the durable item ledger backed by an embedded SQLite
// file. Every write is a single-statement upsert, so concurrent writers
// serialize per item with last-writer-wins semantics.
type SQLiteRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ItemRepository = (*SQLiteRepository)(nil)

// Open creates the database file (and its directory) if needed and prepares
// the schema. WAL mode keeps readers unblocked during writes.
func Open(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("%w: create data directory: %v", domain.ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorageUnavailable, err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: apply schema: %v", domain.ErrStorageUnavailable, err)
	}

	return &SQLiteRepository{
		db:      db,
		builder: sq.StatementBuilder.RunWith(db),
	}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// HasSeen reports whether the item identifier was recorded before. A pure
// lookup; failures wrap domain.ErrStorageUnavailable.
func (r *SQLiteRepository) HasSeen(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.builder.
		Select("1").
		From("items").
		Where(sq.Eq{"id": id}).
		QueryRowContext(ctx).
		Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lookup item %s: %v", domain.ErrStorageUnavailable, id, err)
	}
	return true, nil
}

// Record upserts the item and its verdict keyed on the item identifier. The
// single INSERT ... ON CONFLICT statement makes the write atomic and
// idempotent: recording the same arguments twice leaves one row.
func (r *SQLiteRepository) Record(ctx context.Context, item domain.Item, verdict domain.VerificationResult) error {
	matches, err := json.Marshal(verdict.Matches)
	if err != nil {
		return fmt.Errorf("%w: encode matches for %s: %v", domain.ErrStorageUnavailable, item.ID, err)
	}

	now := time.Now().UTC()
	_, err = r.builder.
		Insert("items").
		Columns("id", "title", "url", "source", "published_at",
			"verified", "is_relevant", "matches", "rationale", "verified_at",
			"created_at", "updated_at").
		Values(item.ID, item.Title, item.URL, item.Source, item.PublishedAt,
			verdict.Verified, verdict.IsRelevant, string(matches), verdict.Rationale, verdict.VerifiedAt,
			now, now).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			source = excluded.source,
			published_at = excluded.published_at,
			verified = excluded.verified,
			is_relevant = excluded.is_relevant,
			matches = excluded.matches,
			rationale = excluded.rationale,
			verified_at = excluded.verified_at,
			updated_at = excluded.updated_at`).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: upsert item %s: %v", domain.ErrStorageUnavailable, item.ID, err)
	}

	return nil
}

// QueryRelevant returns confirmed-relevant items ordered by recency. A nil
// since returns the full history; re-querying reconstructs the sequence.
func (r *SQLiteRepository) QueryRelevant(ctx context.Context, since *time.Time) ([]domain.StoredItem, error) {
	query := r.builder.
		Select("id", "title", "url", "source", "published_at",
			"verified", "is_relevant", "matches", "rationale", "verified_at").
		From("items").
		Where(sq.Eq{"is_relevant": true}).
		OrderBy("published_at DESC", "updated_at DESC")
	if since != nil {
		query = query.Where(sq.GtOrEq{"published_at": since.UTC()})
	}

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query relevant items: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var stored []domain.StoredItem
	for rows.Next() {
		var (
			item    domain.Item
			verdict domain.VerificationResult
			matches string
		)
		err := rows.Scan(&item.ID, &item.Title, &item.URL, &item.Source, &item.PublishedAt,
			&verdict.Verified, &verdict.IsRelevant, &matches, &verdict.Rationale, &verdict.VerifiedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", domain.ErrStorageUnavailable, err)
		}
		if err := json.Unmarshal([]byte(matches), &verdict.Matches); err != nil {
			return nil, fmt.Errorf("%w: decode matches for %s: %v", domain.ErrStorageUnavailable, item.ID, err)
		}
		verdict.ItemID = item.ID
		stored = append(stored, domain.StoredItem{Item: item, Verdict: verdict})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate relevant items: %v", domain.ErrStorageUnavailable, err)
	}

	return stored, nil
}
