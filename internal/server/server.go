package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/sitehash/internal/model"
	"github.com/nao1215/sitehash/internal/service"
)

const (
	// MaxRequestBody caps /hash request bodies.
	MaxRequestBody = 1 << 20

	// MaxWebhookBody caps webhook bodies. GitHub caps payloads at 25 MB.
	MaxWebhookBody = 25 << 20
)

// Response messages.
const (
	msgMissingURLs  = "Missing urls in the request parameters"
	msgMissingURL   = "Missing url in the query parameters"
	msgRateLimited  = "rate limit exceeded"
	msgInvalidJSON  = "invalid JSON body"
	msgBodyTooLarge = "request body too large"
)

// HashService computes fingerprints for request URLs.
type HashService interface {
	HashAll(ctx context.Context, raws []string) ([]model.HashResult, error)
	CacheSize() int
}

// PushHandler reacts to repository push events.
type PushHandler interface {
	OnPushEvent(ctx context.Context, ev model.PushEvent) (service.Outcome, error)
}

// Server is the HTTP front end of the fingerprint service.
type Server struct {
	hashes  HashService
	pushes  PushHandler
	limiter *ClientLimiter
	secret  string
	logger  *slog.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithWebhookSecret requires webhook deliveries to carry a valid
// X-Hub-Signature-256 for secret. An empty secret disables the check.
func WithWebhookSecret(secret string) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// WithRateLimit limits each client IP to rps requests per second with the
// given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = NewClientLimiter(rps, burst)
	}
}

// New creates a Server. pushes may be nil, in which case every webhook
// delivery is ignored.
func New(hashes HashService, pushes PushHandler, opts ...Option) *Server {
	s := &Server{
		hashes: hashes,
		pushes: pushes,
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	if !s.limiter.Allow(clientIP(r)) {
		writeError(rec, http.StatusTooManyRequests, msgRateLimited)
	} else {
		s.mux.ServeHTTP(rec, r)
	}

	s.logger.Debug("request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"remote", clientIP(r),
		"duration", time.Since(start))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /hash", s.handlePostHash)
	s.mux.HandleFunc("GET /hash", s.handleGetHash)
	s.mux.HandleFunc("POST /hash/gitwh", s.handleWebhook)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// hashRequest accepts {"urls": "..."}, {"urls": [...]} and the legacy
// {"url": ...} form.
type hashRequest struct {
	URLs json.RawMessage `json:"urls"`
	URL  json.RawMessage `json:"url"`
}

func (s *Server) handlePostHash(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)

	// An empty body is treated like {}.
	var req hashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBodyError(w, err)
		return
	}

	urls, err := stringOrList(req.URLs)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if len(urls) == 0 {
		if urls, err = stringOrList(req.URL); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidJSON)
			return
		}
	}
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, msgMissingURLs)
		return
	}

	s.hash(w, r, urls)
}

func (s *Server) handleGetHash(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		writeError(w, http.StatusBadRequest, msgMissingURL)
		return
	}
	s.hash(w, r, []string{raw})
}

func (s *Server) hash(w http.ResponseWriter, r *http.Request, urls []string) {
	results, err := s.hashes.HashAll(r.Context(), urls)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidURL) {
			status = http.StatusBadRequest
		} else {
			s.logger.Error("hash request failed", "urls", urls, "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		writeBodyError(w, err)
		return
	}

	if !trustedOrigin(r, body, s.secret) {
		s.logger.Warn("webhook from untrusted origin ignored",
			"remote", clientIP(r),
			"user_agent", r.UserAgent())
		writeOutcome(w, service.OutcomeIgnored)
		return
	}
	if s.pushes == nil {
		writeOutcome(w, service.OutcomeIgnored)
		return
	}

	ev, err := model.ParsePushEvent(body)
	switch {
	case errors.Is(err, model.ErrMissingRepository):
		s.logger.Debug("webhook without repository ignored",
			"event", r.Header.Get("X-GitHub-Event"))
		writeOutcome(w, service.OutcomeIgnored)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.pushes.OnPushEvent(r.Context(), ev)
	if err != nil {
		s.logger.Error("webhook invalidation failed",
			"organization", ev.Organization,
			"repository", ev.RepositoryName,
			"error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeOutcome(w, outcome)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cached": s.hashes.CacheSize(),
	})
}

// stringOrList decodes a JSON string or array of strings. Absent, null and
// empty values decode to nil.
func stringOrList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var one string
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, err
		}
		if one == "" {
			return nil, nil
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("urls must be a string or an array of strings: %w", err)
	}
	return many, nil
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload) //nolint:errcheck // client may be gone
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeOutcome(w http.ResponseWriter, outcome service.Outcome) {
	writeJSON(w, http.StatusOK, map[string]string{"message": string(outcome)})
}

// writeBodyError reports a request body that could not be read or decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return
	}
	writeError(w, http.StatusBadRequest, msgInvalidJSON)
}

// statusRecorder captures the status code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
