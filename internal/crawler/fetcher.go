package crawler

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// DefaultTimeout bounds a single resource fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps the decoded size of a single resource.
	DefaultMaxBodySize int64 = 10 << 20

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "sitehash/1.0 (+https://github.com/nao1215/sitehash)"
)

// errBodyTooLarge is wrapped into ErrFetch when a body exceeds the size cap.
var errBodyTooLarge = errors.New("response body exceeds size limit")

// Resource is a fetched resource decoded to text.
type Resource struct {
	// URL is the URL that was requested.
	URL string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body decoded as UTF-8.
	// Invalid byte sequences are replaced with U+FFFD.
	Body string
}

// IsHTML reports whether the resource should be scanned for links.
// The Content-Type header decides; when it is missing the body is sniffed.
func (r *Resource) IsHTML() bool {
	ct := r.ContentType
	if ct == "" {
		ct = http.DetectContentType([]byte(r.Body))
	}
	return strings.Contains(strings.ToLower(ct), "html")
}

// ResourceFetcher retrieves a single resource.
type ResourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Resource, error)
}

// Fetcher retrieves resources over HTTP(S).
// Every non-2xx status, transport error or oversized body is reported as ErrFetch.
// Redirects are followed by the underlying client.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	timeout     time.Duration
	logger      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize caps the decoded body size of a single resource.
func WithMaxBodySize(n int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = n
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithFetcherLogger sets the logger.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher. A nil client means a fresh http.Client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		timeout:     DefaultTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL and returns its body decoded as UTF-8 text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Resource, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %s: unexpected status %d", ErrFetch, rawURL, resp.StatusCode)
	}

	raw, err := f.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
	}

	text, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode utf-8: %w", ErrFetch, rawURL, err)
	}

	f.logger.Debug("fetched resource",
		"url", rawURL,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"bytes", len(text))

	return &Resource{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        string(text),
	}, nil
}

// readBody decodes the content encoding and enforces the size cap.
func (f *Fetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		defer func() {
			_ = gz.Close()
		}()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		rc, err := newDeflateReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate decode: %w", err)
		}
		defer func() {
			_ = rc.Close()
		}()
		reader = rc
	}

	if f.maxBodySize <= 0 {
		return io.ReadAll(reader)
	}
	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", errBodyTooLarge, f.maxBodySize)
	}
	return body, nil
}

// newDeflateReader accepts both zlib-wrapped and raw deflate streams;
// servers send either under "Content-Encoding: deflate".
func newDeflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	header, err := br.Peek(2)
	if err == nil && isZlibHeader(header[0], header[1]) {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
