package search

import (
	"context"
	"log"
	"time"

	"lumen/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexEntry pushes a journal entry into Meilisearch, fire-and-forget.
// Postgres already holds the durable copy; an indexing failure only
// delays searchability until the next reindex.
func (s *Service) IndexEntry(entry store.Entry) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	rec := entryToRecord(entry)
	go func() {
		if err := s.meili.IndexEntry(rec); err != nil {
			log.Printf("search: index entry %s: %v", rec.ID, err)
		}
	}()
}

// ReindexAllFromPG reads every entry from PostgreSQL and pushes it to
// Meilisearch. Called at startup when Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	records, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}
	if err := s.meili.IndexEntries(records); err != nil {
		log.Printf("search: reindex entries: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}

func entryToRecord(e store.Entry) EntryRecord {
	return EntryRecord{
		ID:        e.ID,
		UserID:    e.UserID,
		Mood:      e.Mood,
		Text:      e.Text,
		Sentiment: e.Sentiment,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
