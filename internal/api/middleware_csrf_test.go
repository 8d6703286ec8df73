// ABOUTME: Tests for the CSRF header middleware.
// ABOUTME: Cookie-authenticated writes need X-Requested-By; Bearer and safe requests are exempt.
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newCSRFTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	t.Cleanup(ts.Close)
	return ts
}

func TestCSRF(t *testing.T) {
	t.Parallel()
	ts := newCSRFTestServer(t)

	tests := []struct {
		name   string
		method string
		cookie bool
		bearer bool
		header string
		want   int
	}{
		{"cookie post without header", http.MethodPost, true, false, "", http.StatusForbidden},
		{"cookie delete with wrong header", http.MethodDelete, true, false, "Other", http.StatusForbidden},
		{"cookie patch with header", http.MethodPatch, true, false, csrfHeaderValue, http.StatusOK},
		{"cookie get without header", http.MethodGet, true, false, "", http.StatusOK},
		{"bearer post without header", http.MethodPost, true, true, "", http.StatusOK},
		{"anonymous post", http.MethodPost, false, false, "", http.StatusOK},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req, _ := http.NewRequestWithContext(context.Background(), tc.method, ts.URL, nil)
			if tc.cookie {
				req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: "x"})
			}
			if tc.bearer {
				req.Header.Set("Authorization", "Bearer x")
			}
			if tc.header != "" {
				req.Header.Set("X-Requested-By", tc.header)
			}
			resp, err := ts.Client().Do(req) //nolint:gosec // G704 false positive
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close() //nolint:errcheck,gosec // G104
			if resp.StatusCode != tc.want {
				t.Errorf("got %d, want %d", resp.StatusCode, tc.want)
			}
		})
	}
}
