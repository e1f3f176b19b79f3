package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/sitehash/internal/model"
)

func TestGitHub_LastChanged(t *testing.T) {
	t.Parallel()

	repo := Repo{Owner: "ranchimall", Name: "standard-operations"}

	t.Run("returns pushed_at and sends token", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/repos/ranchimall/standard-operations" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
				t.Errorf("unexpected authorization header %q", got)
			}
			_, _ = w.Write([]byte(`{"name":"standard-operations","pushed_at":"2024-03-01T10:00:00Z"}`))
		}))
		defer srv.Close()

		g := NewGitHub(WithBaseURL(srv.URL), WithToken("secret-token"), WithHTTPClient(srv.Client()))
		got, err := g.LastChanged(context.Background(), repo)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("reuses etag on not modified", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if r.Header.Get("If-None-Match") == `"v1"` {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("ETag", `"v1"`)
			_, _ = w.Write([]byte(`{"pushed_at":"2024-03-01T10:00:00Z"}`))
		}))
		defer srv.Close()

		g := NewGitHub(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
		first, err := g.LastChanged(context.Background(), repo)
		if err != nil {
			t.Fatalf("first call: %v", err)
		}
		second, err := g.LastChanged(context.Background(), repo)
		if err != nil {
			t.Fatalf("second call: %v", err)
		}
		if !first.Equal(second) {
			t.Errorf("expected cached value %v, got %v", first, second)
		}
		if calls.Load() != 2 {
			t.Errorf("expected 2 calls, got %d", calls.Load())
		}
	})

	t.Run("upstream failures are unavailable", func(t *testing.T) {
		t.Parallel()

		bodies := map[string]struct {
			status int
			body   string
		}{
			"server error":   {http.StatusInternalServerError, `{}`},
			"rate limited":   {http.StatusForbidden, `{"message":"API rate limit exceeded"}`},
			"bad json":       {http.StatusOK, `{`},
			"missing pushed": {http.StatusOK, `{"pushed_at":null}`},
		}
		for name, tc := range bodies {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(tc.body))
				}))
				defer srv.Close()

				g := NewGitHub(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
				_, err := g.LastChanged(context.Background(), repo)
				if !errors.Is(err, ErrUnavailable) {
					t.Errorf("expected ErrUnavailable, got %v", err)
				}
			})
		}
	})

	t.Run("unreachable upstream is unavailable", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		base := srv.URL
		srv.Close()

		_, err := NewGitHub(WithBaseURL(base)).LastChanged(context.Background(), repo)
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestIsFresh(t *testing.T) {
	t.Parallel()

	pushed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastUpdated time.Time
		want        bool
	}{
		{"recorded after push", pushed.Add(time.Minute), true},
		{"recorded at push", pushed, true},
		{"recorded before push", pushed.Add(-time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entry := model.CacheEntry{Fingerprint: "x", LastUpdated: tt.lastUpdated}
			if got := IsFresh(entry, pushed); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}
