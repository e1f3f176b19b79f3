package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nao1215/sitehash/internal/cache"
	"github.com/nao1215/sitehash/internal/crawler"
	"github.com/nao1215/sitehash/internal/database"
	"github.com/nao1215/sitehash/internal/model"
	"github.com/nao1215/sitehash/internal/oracle"
	"github.com/nao1215/sitehash/internal/pipeline"
)

// Computer computes the fingerprint of a root URL.
type Computer interface {
	Compute(ctx context.Context, root model.NormalizedURL) (crawler.Result, error)
}

// HistoryStore records computed fingerprints.
type HistoryStore interface {
	Latest(ctx context.Context, url string) (*database.Record, error)
	Insert(ctx context.Context, record *database.Record) (int64, error)
}

// Hasher serves fingerprint requests.
type Hasher struct {
	computer Computer
	cache    *cache.Cache
	oracle   oracle.Oracle
	matcher  *oracle.PagesMatcher
	history  HistoryStore
	batch    *pipeline.BatchProcessor
	batchMax int
	source   model.Source
	flights  singleflight.Group
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Hasher.
type Option func(*Hasher)

// WithOracle sets the freshness oracle consulted for eligible roots.
// Without one, eligible roots are recomputed on every request.
func WithOracle(o oracle.Oracle) Option {
	return func(h *Hasher) {
		h.oracle = o
	}
}

// WithMatcher sets which roots are eligible for caching.
// Without one, no root is cached.
func WithMatcher(m *oracle.PagesMatcher) Option {
	return func(h *Hasher) {
		h.matcher = m
	}
}

// WithHistory records every computed fingerprint in store.
func WithHistory(store HistoryStore) Option {
	return func(h *Hasher) {
		h.history = store
	}
}

// WithBatchSize bounds how many URLs of one request are hashed at once.
func WithBatchSize(n int) Option {
	return func(h *Hasher) {
		h.batchMax = n
	}
}

// WithSource sets the source recorded in the history for computations
// triggered through Hash. The default is model.SourceRequest.
func WithSource(src model.Source) Option {
	return func(h *Hasher) {
		h.source = src
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Hasher) {
		h.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hasher) {
		h.logger = logger
	}
}

// NewHasher creates a Hasher. c may be nil, in which case nothing is cached.
func NewHasher(computer Computer, c *cache.Cache, opts ...Option) *Hasher {
	h := &Hasher{
		computer: computer,
		cache:    c,
		source:   model.SourceRequest,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.batch = pipeline.NewBatchProcessor(
		pipeline.WithConcurrency(h.batchMax),
		pipeline.WithBatchLogger(h.logger),
	)
	return h
}

// Hash returns the fingerprint of the site at raw.
// The returned URL is raw as given by the caller.
func (h *Hasher) Hash(ctx context.Context, raw string) (model.HashResult, error) {
	root, err := model.NormalizeURL(raw)
	if err != nil {
		return model.HashResult{}, err
	}

	repo, eligible := h.eligible(root)
	if !eligible {
		res, err := h.compute(ctx, root, h.source, time.Time{})
		if err != nil {
			return model.HashResult{}, err
		}
		return model.HashResult{URL: raw, Hash: res.Fingerprint}, nil
	}

	entry, err := h.cachedOrFresh(ctx, root, repo)
	if err != nil {
		return model.HashResult{}, err
	}
	return model.HashResult{URL: raw, Hash: entry.Fingerprint}, nil
}

// HashAll hashes every input concurrently and returns results in input order.
// The first failure fails the whole call.
func (h *Hasher) HashAll(ctx context.Context, raws []string) ([]model.HashResult, error) {
	return h.batch.Process(ctx, raws, h.Hash)
}

// CacheSize returns the number of cached roots.
func (h *Hasher) CacheSize() int {
	if h.cache == nil {
		return 0
	}
	return h.cache.Len()
}

// eligible reports whether root takes part in caching.
func (h *Hasher) eligible(root model.NormalizedURL) (oracle.Repo, bool) {
	if h.cache == nil || h.matcher == nil {
		return oracle.Repo{}, false
	}
	return h.matcher.Match(root)
}

// cachedOrFresh returns the cached entry for root when the oracle confirms it
// is fresh, and recomputes it otherwise. An unavailable oracle means
// "unknown", which always recomputes.
//
// Concurrent recomputations of root are collapsed into one. A caller whose
// ctx is done stops waiting without canceling the computation for the
// others. When a newer entry was stored meanwhile, that entry is returned.
func (h *Hasher) cachedOrFresh(ctx context.Context, root model.NormalizedURL, repo oracle.Repo) (model.CacheEntry, error) {
	lastChanged, known := h.lastChanged(ctx, repo)

	if cached, ok := h.cache.Get(root); ok && known && oracle.IsFresh(cached, lastChanged) {
		h.logger.Debug("cache hit", "url", root.String(), "fingerprint", cached.Fingerprint.String())
		return cached, nil
	}

	ch := h.flights.DoChan(root.String(), func() (any, error) {
		// The shared computation outlives any single caller.
		ctx := context.WithoutCancel(ctx)
		validFrom := h.now()
		if known {
			validFrom = lastChanged
		}
		res, err := h.compute(ctx, root, h.source, validFrom)
		if err != nil {
			return model.CacheEntry{}, err
		}
		entry := model.CacheEntry{Fingerprint: res.Fingerprint, LastUpdated: validFrom}
		if !h.cache.PutIfNewer(root, entry) {
			h.logger.Debug("newer cache entry kept", "url", root.String())
			if current, ok := h.cache.Get(root); ok {
				entry = current
			}
		}
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return model.CacheEntry{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return model.CacheEntry{}, r.Err
		}
		if r.Shared {
			h.logger.Debug("joined in-flight computation", "url", root.String())
		}
		return r.Val.(model.CacheEntry), nil
	}
}

// lastChanged asks the oracle for the repository's change time.
func (h *Hasher) lastChanged(ctx context.Context, repo oracle.Repo) (time.Time, bool) {
	if h.oracle == nil {
		return time.Time{}, false
	}
	t, err := h.oracle.LastChanged(ctx, repo)
	if err != nil {
		h.logger.Warn("freshness unknown, recomputing", "repo", repo.String(), "error", err)
		return time.Time{}, false
	}
	return t, true
}

// compute runs the fingerprinter and records the result.
// validFrom is stored as the record's last_updated; zero means the
// computation time.
func (h *Hasher) compute(ctx context.Context, root model.NormalizedURL, source model.Source, validFrom time.Time) (crawler.Result, error) {
	start := h.now()
	res, err := h.computer.Compute(ctx, root)
	if err != nil {
		h.logger.Warn("fingerprint failed", "url", root.String(), "error", err)
		return crawler.Result{}, err
	}
	h.logger.Info("fingerprint computed",
		"url", root.String(),
		"fingerprint", res.Fingerprint.String(),
		"resources", res.Resources,
		"source", string(source),
		"elapsed", h.now().Sub(start))

	if validFrom.IsZero() {
		validFrom = start
	}
	h.record(ctx, root, res.Fingerprint, validFrom, source)
	return res, nil
}

// record appends to the history and warns when the fingerprint drifted.
// History failures are logged and never fail the request.
func (h *Hasher) record(ctx context.Context, root model.NormalizedURL, fp model.Fingerprint, validFrom time.Time, source model.Source) {
	if h.history == nil {
		return
	}
	// Recorded even if the client has gone away.
	ctx = context.WithoutCancel(ctx)

	prev, err := h.history.Latest(ctx, root.String())
	if err != nil {
		h.logger.Warn("failed to read fingerprint history", "url", root.String(), "error", err)
	} else if prev != nil && prev.Fingerprint != fp {
		h.logger.Warn("fingerprint changed",
			"url", root.String(),
			"previous", prev.Fingerprint.String(),
			"current", fp.String(),
			"source", string(source))
	}

	if _, err := h.history.Insert(ctx, &database.Record{
		URL:         root.String(),
		Fingerprint: fp,
		LastUpdated: validFrom,
		ComputedAt:  h.now(),
		Source:      source,
	}); err != nil {
		h.logger.Warn("failed to record fingerprint", "url", root.String(), "error", err)
	}
}
