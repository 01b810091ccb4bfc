package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiClientReadsFirstCandidate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode upstream body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "  Glad to hear it!  "}}}},
			},
		})
	}))
	defer upstream.Close()

	client := NewGeminiClient(upstream.URL, "gemini-pro", "test-key", 5*time.Second)
	svc := NewServiceWithClient(client)

	result, err := svc.Enrich(context.Background(), "Happy", "Had a great day")
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if result.Feedback != "Glad to hear it!" {
		t.Errorf("expected trimmed feedback, got %q", result.Feedback)
	}
	if result.Sentiment != "Happy" {
		t.Errorf("expected sentiment to echo mood, got %q", result.Sentiment)
	}
	if gotPath != "/v1beta1/models/gemini-pro:generateContent" {
		t.Errorf("unexpected upstream path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("expected api key in query string, got %q", gotKey)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", gotBody)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "Happy") || !strings.Contains(prompt, "Had a great day") {
		t.Errorf("prompt missing mood or text: %q", prompt)
	}
}

func TestBuildPromptEmbedsTextVerbatim(t *testing.T) {
	text := "rough day\nfelt \"off\" all morning"
	prompt := buildPrompt("Sad", text)

	if !strings.Contains(prompt, `Journal text: "`+text+`"`) {
		t.Fatalf("prompt does not carry the raw entry text: %q", prompt)
	}
	if strings.Contains(prompt, `\n`) || strings.Contains(prompt, `\"`) {
		t.Fatalf("prompt escapes the entry text: %q", prompt)
	}
	if !strings.Contains(prompt, "User selected mood: Sad") {
		t.Fatalf("prompt missing mood line: %q", prompt)
	}
}

func TestEnrichWrapsUpstreamErrors(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	svc := NewServiceWithClient(NewGeminiClient(upstream.URL, "gemini-pro", "k", time.Second))

	_, err := svc.Enrich(context.Background(), "Sad", "rough week")
	var enrichErr *Error
	if !errors.As(err, &enrichErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestEnrichRejectsEmptyResponseShape(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer upstream.Close()

	svc := NewServiceWithClient(NewGeminiClient(upstream.URL, "gemini-pro", "k", time.Second))

	var enrichErr *Error
	if _, err := svc.Enrich(context.Background(), "Neutral", "nothing much"); !errors.As(err, &enrichErr) {
		t.Fatalf("expected *Error for empty candidates, got %v", err)
	}
}
