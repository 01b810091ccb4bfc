package app

import (
	"errors"
	"net/http"
	"testing"
)

func TestJournalRequiresAuth(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	status, payload := doJSON(t, http.MethodGet, server.URL+"/api/journal", "", nil)
	if status != http.StatusUnauthorized || payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("no token: status %d code %v", status, payload["code"])
	}

	status, _ = doJSON(t, http.MethodGet, server.URL+"/api/journal", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d, want 401", status)
	}
}

func TestSubmitEntryOverHTTP(t *testing.T) {
	es := &fakeEntryStore{}
	server := newTestServer(newFakeStore(), es)
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	token := payload["accessToken"].(string)

	status, created := doJSON(t, http.MethodPost, server.URL+"/api/journal", token, map[string]string{
		"mood": "Happy",
		"text": "Went for a long walk.",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d, payload %v", status, created)
	}
	entry := created["entry"].(map[string]any)
	if entry["mood"] != "Happy" {
		t.Fatalf("entry mood = %v", entry["mood"])
	}
	// No enricher configured: sentiment degrades to the mood.
	if entry["sentiment"] != "Happy" {
		t.Fatalf("sentiment = %v, want mood fallback", entry["sentiment"])
	}
	entries := created["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	status, listed := doJSON(t, http.MethodGet, server.URL+"/api/journal", token, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if got := listed["entries"].([]any); len(got) != 1 {
		t.Fatalf("listed entries = %d, want 1", len(got))
	}
}

func TestSubmitEntryValidation(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	token := payload["accessToken"].(string)

	status, resp := doJSON(t, http.MethodPost, server.URL+"/api/journal", token, map[string]string{
		"mood": "Ecstatic",
		"text": "something",
	})
	if status != http.StatusUnprocessableEntity || resp["code"] != "VALIDATION_ERROR" {
		t.Fatalf("bad mood: status %d code %v", status, resp["code"])
	}

	status, resp = doJSON(t, http.MethodPost, server.URL+"/api/journal", token, map[string]string{
		"mood": "Happy",
		"text": "   ",
	})
	if status != http.StatusUnprocessableEntity || resp["code"] != "VALIDATION_ERROR" {
		t.Fatalf("blank text: status %d code %v", status, resp["code"])
	}
}

func TestSubmitEntryPersistenceFailure(t *testing.T) {
	es := &fakeEntryStore{insertErr: errors.New("connection refused")}
	server := newTestServer(newFakeStore(), es)
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	token := payload["accessToken"].(string)

	status, resp := doJSON(t, http.MethodPost, server.URL+"/api/journal", token, map[string]string{
		"mood": "Sad",
		"text": "rough day",
	})
	if status != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", status)
	}
	if resp["code"] != "PERSISTENCE_ERROR" {
		t.Fatalf("code = %v, want PERSISTENCE_ERROR", resp["code"])
	}
	if resp["error"] != "Could not save your entry. Please try again." {
		t.Fatalf("message = %v", resp["error"])
	}
}

func TestJournalIsPartitionedByUser(t *testing.T) {
	es := &fakeEntryStore{}
	server := newTestServer(newFakeStore(), es)
	defer server.Close()

	mara := signUp(t, server.URL, "mara@example.com", "hunter22")["accessToken"].(string)
	noor := signUp(t, server.URL, "noor@example.com", "hunter22")["accessToken"].(string)

	status, _ := doJSON(t, http.MethodPost, server.URL+"/api/journal", mara, map[string]string{
		"mood": "Happy",
		"text": "my private note",
	})
	if status != http.StatusCreated {
		t.Fatalf("submit status = %d", status)
	}

	status, listed := doJSON(t, http.MethodGet, server.URL+"/api/journal", noor, nil)
	if status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if got := listed["entries"].([]any); len(got) != 0 {
		t.Fatalf("another user sees %d entries, want 0", len(got))
	}
}

func TestEnrichUnavailableWithoutGateway(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	token := payload["accessToken"].(string)

	status, resp := doJSON(t, http.MethodPost, server.URL+"/api/enrich", token, map[string]string{
		"mood": "Happy",
		"text": "hello",
	})
	if status != http.StatusServiceUnavailable || resp["code"] != "ENRICHMENT_UNAVAILABLE" {
		t.Fatalf("status %d code %v", status, resp["code"])
	}
}

func TestPromptEndpoint(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	token := payload["accessToken"].(string)

	status, resp := doJSON(t, http.MethodGet, server.URL+"/api/prompt", token, nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if prompt, ok := resp["prompt"].(string); !ok || prompt == "" {
		t.Fatalf("prompt = %v", resp["prompt"])
	}
}
