// ABOUTME: Tests for RequireAuthenticated middleware (Bearer header and access_token cookie).
// ABOUTME: Uses package api to access unexported context keys and Server fields.
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/auth"
)

// newAuthTestServer wraps a handler that records the injected user id.
func newAuthTestServer(t *testing.T, got *uuid.UUID) *httptest.Server {
	t.Helper()
	srv := NewServer(nil, testConfig())
	t.Cleanup(srv.Close)
	handler := srv.RequireAuthenticated()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = userIDFrom(r)
		w.WriteHeader(http.StatusOK)
	}))
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestRequireAuthenticated_NoCredentials_401(t *testing.T) {
	t.Parallel()
	var got uuid.UUID
	ts := newAuthTestServer(t, &got)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive: ts.URL is httptest.Server, not user input
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no credentials: got %d, want 401", resp.StatusCode)
	}
}

func TestRequireAuthenticated_Bearer_Valid(t *testing.T) {
	t.Parallel()
	var got uuid.UUID
	ts := newAuthTestServer(t, &got)
	userID := uuid.New()
	token, err := auth.IssueAccessToken([]byte(testJWTSecret), userID, "alice", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid bearer: got %d, want 200", resp.StatusCode)
	}
	if got != userID {
		t.Errorf("ctxUserID = %v, want %v", got, userID)
	}
}

func TestRequireAuthenticated_Cookie_Valid(t *testing.T) {
	t.Parallel()
	var got uuid.UUID
	ts := newAuthTestServer(t, &got)
	userID := uuid.New()
	token, err := auth.IssueAccessToken([]byte(testJWTSecret), userID, "bob", 15*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("valid cookie: got %d, want 200", resp.StatusCode)
	}
	if got != userID {
		t.Errorf("ctxUserID = %v, want %v", got, userID)
	}
}

func TestRequireAuthenticated_Expired_401(t *testing.T) {
	t.Parallel()
	var got uuid.UUID
	ts := newAuthTestServer(t, &got)
	token, err := auth.IssueAccessToken([]byte(testJWTSecret), uuid.New(), "carol", -time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expired token: got %d, want 401", resp.StatusCode)
	}
}

func TestRequireAuthenticated_WrongSecret_401(t *testing.T) {
	t.Parallel()
	var got uuid.UUID
	ts := newAuthTestServer(t, &got)
	token, err := auth.IssueAccessToken([]byte("another-secret-32-bytes-minimum-b"), uuid.New(), "dan", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong secret: got %d, want 401", resp.StatusCode)
	}
}
