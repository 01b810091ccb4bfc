// Package journal implements the entry write pipeline: validate, enrich
// best-effort, persist, refresh.
package journal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"strings"

	"lumen/api/internal/enrich"
	"lumen/api/internal/store"
)

// Moods is the fixed set a client may submit.
var Moods = map[string]struct{}{
	"Happy":   {},
	"Sad":     {},
	"Neutral": {},
	"Angry":   {},
	"Anxious": {},
}

type EntryStore interface {
	InsertEntry(ctx context.Context, entry store.Entry) (store.Entry, error)
	ListEntries(ctx context.Context, userID string) ([]store.Entry, error)
}

type Enricher interface {
	Enrich(ctx context.Context, mood, text string) (enrich.Result, error)
}

// Indexer receives entries for search indexing after a durable write.
// Implementations are fire-and-forget.
type Indexer interface {
	IndexEntry(entry store.Entry)
}

type Service struct {
	store    EntryStore
	enricher Enricher
	indexer  Indexer
}

// NewService builds the pipeline. enricher and indexer may be nil; the
// pipeline degrades to mood-only entries and no indexing.
func NewService(entryStore EntryStore, enricher Enricher, indexer Indexer) *Service {
	return &Service{store: entryStore, enricher: enricher, indexer: indexer}
}

// SubmitResult is what a successful submission hands back to the caller.
type SubmitResult struct {
	Entry   store.Entry
	Entries []store.Entry
	// RefreshFailed reports that the post-write list re-read failed. The
	// write itself stands.
	RefreshFailed bool
}

// SubmitEntry runs the pipeline for one entry. Enrichment failures degrade
// (sentiment falls back to mood, no feedback); store failures abort with a
// *PersistenceError and leave nothing behind. Two identical submissions
// produce two entries.
func (s *Service) SubmitEntry(ctx context.Context, userID, mood, text string) (SubmitResult, error) {
	if _, ok := Moods[mood]; !ok {
		return SubmitResult{}, &ValidationError{Field: "mood", Message: "select one of the available moods"}
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return SubmitResult{}, &ValidationError{Field: "text", Message: "write something before saving"}
	}

	sentiment := mood
	feedback := ""
	if s.enricher != nil {
		result, err := s.enricher.Enrich(ctx, mood, text)
		if err != nil {
			log.Printf("journal: enrichment failed, saving without feedback: %v", err)
		} else {
			feedback = result.Feedback
			if result.Sentiment != "" {
				sentiment = result.Sentiment
			}
		}
	}

	entry, err := s.store.InsertEntry(ctx, store.Entry{
		ID:         newEntryID(),
		UserID:     userID,
		Mood:       mood,
		Text:       text,
		Sentiment:  sentiment,
		AIResponse: feedback,
	})
	if err != nil {
		return SubmitResult{}, &PersistenceError{Op: "insert entry", Err: err}
	}

	if s.indexer != nil {
		s.indexer.IndexEntry(entry)
	}

	result := SubmitResult{Entry: entry}
	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		log.Printf("journal: list refresh after write failed for user %s: %v", userID, err)
		result.RefreshFailed = true
		result.Entries = []store.Entry{entry}
		return result, nil
	}
	result.Entries = entries
	return result, nil
}

// ListEntries returns the caller's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, userID string) ([]store.Entry, error) {
	entries, err := s.store.ListEntries(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "list entries", Err: err}
	}
	return entries, nil
}

func newEntryID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "ent_" + hex.EncodeToString(b)
}
