package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries journal_entries using plainto_tsquery and ts_rank, with
// ts_headline for snippets. Results are always restricted to the owning user.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	if q.UserID == "" {
		return nil, 0, fmt.Errorf("search query missing user")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := "e.user_id = $2 AND e.fts @@ plainto_tsquery('english', $1)"
	args := []any{q.Text, q.UserID}
	if q.FilterMood != "" {
		where += " AND e.mood = $3"
		args = append(args, q.FilterMood)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	countSQL := "SELECT count(*) FROM journal_entries e WHERE " + where
	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("fts count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT e.id, e.mood, coalesce(e.sentiment, ''),
			ts_headline('english', e.entry_text, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			e.created_at
		FROM journal_entries e
		WHERE %s
		ORDER BY ts_rank(e.fts, plainto_tsquery('english', $1)) DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.Mood, &r.Sentiment, &r.Snippet, &createdAt); err != nil {
			return nil, 0, fmt.Errorf("fts scan: %w", err)
		}
		r.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords reads every journal entry for reindexing into Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]EntryRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, mood, entry_text, coalesce(sentiment, ''), created_at
		FROM journal_entries`)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var records []EntryRecord
	for rows.Next() {
		var rec EntryRecord
		var createdAt time.Time
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Mood, &rec.Text, &rec.Sentiment, &createdAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		rec.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		records = append(records, rec)
	}
	return records, rows.Err()
}
