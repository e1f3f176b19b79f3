package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/sitehash/internal/model"
	"github.com/nao1215/sitehash/internal/oracle"
)

// Outcome is the result of handling a push event.
type Outcome string

const (
	// OutcomeIgnored means the event did not concern a cached site.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeSuccess means the site was recomputed and the cache updated.
	OutcomeSuccess Outcome = "success"
)

// Invalidator refreshes cache entries when a repository is pushed.
type Invalidator struct {
	hasher *Hasher
	logger *slog.Logger
}

// InvalidatorOption configures an Invalidator.
type InvalidatorOption func(*Invalidator)

// WithInvalidatorLogger sets the logger.
func WithInvalidatorLogger(logger *slog.Logger) InvalidatorOption {
	return func(inv *Invalidator) {
		inv.logger = logger
	}
}

// NewInvalidator creates an Invalidator that writes through hasher's cache.
func NewInvalidator(hasher *Hasher, opts ...InvalidatorOption) *Invalidator {
	inv := &Invalidator{
		hasher: hasher,
		logger: hasher.logger,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// OnPushEvent recomputes the Pages site of the pushed repository and
// overwrites its cache entry with LastUpdated set to the push time.
//
// Events for repositories without Pages, with an empty organization or
// name, or owned by an organization that is not eligible are ignored.
// The recomputation does not join in-flight read requests, which may have
// fetched the site before the push. It is not canceled with ctx.
func (inv *Invalidator) OnPushEvent(ctx context.Context, ev model.PushEvent) (Outcome, error) {
	h := inv.hasher
	if !ev.HasPages || ev.Organization == "" || ev.RepositoryName == "" {
		inv.logger.Debug("push event ignored", "organization", ev.Organization, "repository", ev.RepositoryName, "has_pages", ev.HasPages)
		return OutcomeIgnored, nil
	}
	if h.cache == nil || h.matcher == nil || !h.matcher.IsOwner(ev.Organization) {
		inv.logger.Debug("push event for ineligible owner ignored", "organization", ev.Organization)
		return OutcomeIgnored, nil
	}

	repo := oracle.Repo{Owner: ev.Organization, Name: ev.RepositoryName}
	root, err := model.NormalizeURL(repo.PagesURL(h.matcher.Domain()))
	if err != nil {
		return "", fmt.Errorf("push event for %s: %w", repo, err)
	}

	validFrom := ev.PushedAt
	if validFrom.IsZero() {
		validFrom = h.now()
	}
	// The refresh completes even if the delivery connection closes.
	res, err := h.compute(context.WithoutCancel(ctx), root, model.SourceWebhook, validFrom)
	if err != nil {
		return "", fmt.Errorf("push event for %s: %w", repo, err)
	}

	h.cache.Put(root, model.CacheEntry{Fingerprint: res.Fingerprint, LastUpdated: validFrom})
	inv.logger.Info("cache entry refreshed",
		"url", root.String(),
		"fingerprint", res.Fingerprint.String(),
		"pushed_at", validFrom)
	return OutcomeSuccess, nil
}
