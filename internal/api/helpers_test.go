// ABOUTME: Shared helpers for api tests: server construction, token minting, JSON requests.
// ABOUTME: Integration helpers build the full srv.Handler() stack over testutil.NewTestDB.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scarson/taskboard/internal/auth"
	"github.com/scarson/taskboard/internal/config"
	"github.com/scarson/taskboard/internal/store"
	"github.com/scarson/taskboard/internal/testutil"
)

const testJWTSecret = "test-secret-32-bytes-minimum-aaaa"

func testConfig() *config.Config {
	return &config.Config{ //nolint:exhaustruct // test: only the fields the handler reads
		JWTSecret:      testJWTSecret,
		AccessTokenTTL: 15 * time.Minute,
		WriteRateLimit: 1000,
		WriteRateBurst: 1000,
	}
}

// newTestServer starts the full handler over db.
func newTestServer(t *testing.T, db *testutil.TestDB) *httptest.Server {
	t.Helper()
	srv := NewServer(db.Store, testConfig())
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// tokenFor mints an access token for u.
func tokenFor(t *testing.T, u *store.User) string {
	t.Helper()
	tok, err := auth.IssueAccessToken([]byte(testJWTSecret), u.ID, u.Username, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func mustCreateUser(t *testing.T, db *testutil.TestDB, name string) *store.User {
	t.Helper()
	u, err := db.CreateUser(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	return u
}

// jsonReader marshals v for use as a request body.
func jsonReader(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(b)
}

// doJSON sends method path with an optional JSON body as a Bearer-authenticated
// request. token may be empty for anonymous requests. Returns the status and
// raw body.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		rdr = jsonReader(t, body)
	}
	req, _ := http.NewRequestWithContext(context.Background(), method, ts.URL+path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive: ts.URL is httptest.Server
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck,gosec // G104
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

// decodeInto unmarshals raw into v, failing the test on error.
func decodeInto(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

// createBoard creates a board as the token holder and returns its id.
func createBoard(t *testing.T, ts *httptest.Server, token, title string) string {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodPost, "/api/v1/boards", token, map[string]any{"title": title})
	if status != http.StatusCreated {
		t.Fatalf("create board: got %d (%s), want 201", status, raw)
	}
	var out boardResponseBody
	decodeInto(t, raw, &out)
	return out.ID
}

// setParticipants PATCHes the board's participant list and returns the status.
func setParticipants(t *testing.T, ts *httptest.Server, token, boardID string, ps map[uuid.UUID]string) int {
	t.Helper()
	list := make([]map[string]string, 0, len(ps))
	for id, role := range ps {
		list = append(list, map[string]string{"user_id": id.String(), "role": role})
	}
	status, _ := doJSON(t, ts, http.MethodPatch, "/api/v1/boards/"+boardID, token, map[string]any{"participants": list})
	return status
}

func createCategory(t *testing.T, ts *httptest.Server, token, boardID, title string) string {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodPost, "/api/v1/categories", token,
		map[string]any{"board_id": boardID, "title": title})
	if status != http.StatusCreated {
		t.Fatalf("create category: got %d (%s), want 201", status, raw)
	}
	var out categoryResponseBody
	decodeInto(t, raw, &out)
	return out.ID
}

func createGoal(t *testing.T, ts *httptest.Server, token, categoryID, title string) string {
	t.Helper()
	status, raw := doJSON(t, ts, http.MethodPost, "/api/v1/goals", token,
		map[string]any{"category_id": categoryID, "title": title})
	if status != http.StatusCreated {
		t.Fatalf("create goal: got %d (%s), want 201", status, raw)
	}
	var out goalResponseBody
	decodeInto(t, raw, &out)
	return out.ID
}
