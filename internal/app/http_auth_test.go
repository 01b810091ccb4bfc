package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(fs *fakeStore, es *fakeEntryStore) *httptest.Server {
	httpServer := NewHTTPServer(newTestService(fs, es), "*")
	return httptest.NewServer(httpServer.Handler())
}

func doJSON(t *testing.T, method, url, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, payload
}

func signUp(t *testing.T, baseURL, email, password string) map[string]any {
	t.Helper()
	status, payload := doJSON(t, http.MethodPost, baseURL+"/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup status = %d, payload %v", status, payload)
	}
	return payload
}

func TestSignUpIssuesSession(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	if payload["accessToken"] == "" || payload["refreshToken"] == "" {
		t.Fatalf("expected tokens in %v", payload)
	}
	if payload["userName"] != "mara" {
		t.Fatalf("userName = %v, want derived from email", payload["userName"])
	}
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	signUp(t, server.URL, "mara@example.com", "hunter22")
	status, payload := doJSON(t, http.MethodPost, server.URL+"/api/auth/signup", "", map[string]string{
		"email":    "mara@example.com",
		"password": "hunter22",
	})
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
	if payload["code"] != "EMAIL_IN_USE" {
		t.Fatalf("code = %v, want EMAIL_IN_USE", payload["code"])
	}
}

func TestSignUpWeakPasswordRejected(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	status, payload := doJSON(t, http.MethodPost, server.URL+"/api/auth/signup", "", map[string]string{
		"email":    "mara@example.com",
		"password": "short",
	})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", status)
	}
	if payload["code"] != "WEAK_PASSWORD" {
		t.Fatalf("code = %v, want WEAK_PASSWORD", payload["code"])
	}
}

func TestSignInDistinguishesFailures(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	signUp(t, server.URL, "mara@example.com", "hunter22")

	status, payload := doJSON(t, http.MethodPost, server.URL+"/api/auth/signin", "", map[string]string{
		"email":    "mara@example.com",
		"password": "wrong-pass",
	})
	if status != http.StatusUnauthorized || payload["code"] != "WRONG_PASSWORD" {
		t.Fatalf("wrong password: status %d code %v", status, payload["code"])
	}

	status, payload = doJSON(t, http.MethodPost, server.URL+"/api/auth/signin", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "hunter22",
	})
	if status != http.StatusUnauthorized || payload["code"] != "USER_NOT_FOUND" {
		t.Fatalf("unknown user: status %d code %v", status, payload["code"])
	}

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/auth/signin", "", map[string]string{
		"email":    "mara@example.com",
		"password": "hunter22",
	})
	if status != http.StatusOK {
		t.Fatalf("valid sign-in status = %d", status)
	}
}

func TestSessionRefreshAndLogoutOverHTTP(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	payload := signUp(t, server.URL, "mara@example.com", "hunter22")
	refreshToken := payload["refreshToken"].(string)

	status, refreshed := doJSON(t, http.MethodPost, server.URL+"/api/session/refresh", "", map[string]string{
		"refreshToken": refreshToken,
	})
	if status != http.StatusOK {
		t.Fatalf("refresh status = %d", status)
	}
	if refreshed["refreshToken"] == refreshToken {
		t.Fatal("refresh token was not rotated")
	}

	token := refreshed["accessToken"].(string)
	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/session/logout", token, map[string]string{
		"refreshToken": refreshed["refreshToken"].(string),
	})
	if status != http.StatusOK {
		t.Fatalf("logout status = %d", status)
	}

	status, session := doJSON(t, http.MethodGet, server.URL+"/api/session", token, nil)
	if status != http.StatusOK {
		t.Fatalf("session probe status = %d", status)
	}
	if session["authenticated"] != false {
		t.Fatalf("expected logged-out token to be unauthenticated, got %v", session)
	}
}

func TestPasswordResetFlowNeverRevealsAccounts(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	signUp(t, server.URL, "mara@example.com", "hunter22")

	// Unknown email: same message, no dev token.
	status, payload := doJSON(t, http.MethodPost, server.URL+"/api/auth/reset-password/request", "", map[string]string{
		"email": "nobody@example.com",
	})
	if status != http.StatusOK {
		t.Fatalf("unknown email status = %d", status)
	}
	if _, ok := payload["devResetToken"]; ok {
		t.Fatal("unknown email must not produce a reset token")
	}

	// Known email without SMTP: dev bypass exposes the token.
	status, payload = doJSON(t, http.MethodPost, server.URL+"/api/auth/reset-password/request", "", map[string]string{
		"email": "mara@example.com",
	})
	if status != http.StatusOK {
		t.Fatalf("known email status = %d", status)
	}
	resetToken, ok := payload["devResetToken"].(string)
	if !ok || resetToken == "" {
		t.Fatalf("expected devResetToken in %v", payload)
	}

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/auth/reset-password", "", map[string]string{
		"token":       resetToken,
		"newPassword": "brand-new-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("reset status = %d", status)
	}

	status, _ = doJSON(t, http.MethodPost, server.URL+"/api/auth/signin", "", map[string]string{
		"email":    "mara@example.com",
		"password": "brand-new-pass",
	})
	if status != http.StatusOK {
		t.Fatalf("sign-in with new password status = %d", status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(newFakeStore(), &fakeEntryStore{})
	defer server.Close()

	status, payload := doJSON(t, http.MethodGet, server.URL+"/api/health", "", nil)
	if status != http.StatusOK || payload["ok"] != true {
		t.Fatalf("health: status %d payload %v", status, payload)
	}
}
