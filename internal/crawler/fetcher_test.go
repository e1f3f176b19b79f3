package crawler

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and content type", func(t *testing.T) {
		t.Parallel()

		var gotUA string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<p>hi</p>"))
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(), WithUserAgent("test-agent"))
		res, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Body != "<p>hi</p>" {
			t.Errorf("unexpected body %q", res.Body)
		}
		if !res.IsHTML() {
			t.Error("expected HTML resource")
		}
		if gotUA != "test-agent" {
			t.Errorf("expected user agent test-agent, got %q", gotUA)
		}
	})

	t.Run("non 2xx is a fetch error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status in error, got %v", err)
		}
	})

	t.Run("connection failure is a fetch error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewFetcher(nil).Fetch(context.Background(), url)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("timeout is a fetch error", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewFetcher(srv.Client(), WithTimeout(50*time.Millisecond)).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("oversized body is a fetch error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("a"), 100))
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client(), WithMaxBodySize(10)).Fetch(context.Background(), srv.URL)
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})

	t.Run("invalid utf-8 is replaced", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte{'a', 0xff, 'b'})
		}))
		defer srv.Close()

		res, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Body != "a\uFFFDb" {
			t.Errorf("expected replacement character, got %q", res.Body)
		}
	})

	t.Run("invalid url is a fetch error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFetcher(nil).Fetch(context.Background(), "http://exa mple.com/")
		if !errors.Is(err, ErrFetch) {
			t.Fatalf("expected ErrFetch, got %v", err)
		}
	})
}

func TestFetcher_ContentEncoding(t *testing.T) {
	t.Parallel()

	const payload = "body { color: red; }"

	encoders := map[string]func(*bytes.Buffer){
		"gzip": func(buf *bytes.Buffer) {
			w := gzip.NewWriter(buf)
			_, _ = w.Write([]byte(payload))
			_ = w.Close()
		},
		"br": func(buf *bytes.Buffer) {
			w := brotli.NewWriter(buf)
			_, _ = w.Write([]byte(payload))
			_ = w.Close()
		},
		"deflate": func(buf *bytes.Buffer) {
			w := zlib.NewWriter(buf)
			_, _ = w.Write([]byte(payload))
			_ = w.Close()
		},
	}

	for encoding, encode := range encoders {
		t.Run(encoding, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			encode(&buf)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.Header.Get("Accept-Encoding"), encoding) {
					t.Errorf("Accept-Encoding %q does not offer %s", r.Header.Get("Accept-Encoding"), encoding)
				}
				w.Header().Set("Content-Encoding", encoding)
				w.Header().Set("Content-Type", "text/css")
				_, _ = w.Write(buf.Bytes())
			}))
			defer srv.Close()

			res, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Body != payload {
				t.Errorf("expected %q, got %q", payload, res.Body)
			}
			if res.IsHTML() {
				t.Error("text/css must not be treated as HTML")
			}
		})
	}
}

func TestResource_IsHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		res  Resource
		want bool
	}{
		{"html header", Resource{ContentType: "text/html"}, true},
		{"xhtml header", Resource{ContentType: "application/xhtml+xml"}, true},
		{"javascript", Resource{ContentType: "application/javascript", Body: "<html>"}, false},
		{"sniffed html", Resource{Body: "<!DOCTYPE html><html></html>"}, true},
		{"sniffed text", Resource{Body: "plain text"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.res.IsHTML(); got != tt.want {
				t.Errorf("IsHTML() = %v, want %v", got, tt.want)
			}
		})
	}
}
