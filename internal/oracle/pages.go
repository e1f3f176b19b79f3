package oracle

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/sitehash/internal/model"
)

// DefaultPagesDomain is the GitHub Pages host suffix.
const DefaultPagesDomain = "github.io"

// Repo identifies a GitHub repository.
type Repo struct {
	Owner string
	Name  string
}

// String returns "owner/name".
func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// PagesURL returns the root URL a repository is published at.
func (r Repo) PagesURL(domain string) string {
	return fmt.Sprintf("https://%s.%s/%s", r.Owner, domain, r.Name)
}

// PagesMatcher recognizes cache-eligible GitHub Pages roots.
type PagesMatcher struct {
	pattern *regexp.Regexp
	owners  []string
	domain  string
}

// NewPagesMatcher creates a matcher for sites under domain owned by one of owners.
// Owner comparison is case-insensitive.
func NewPagesMatcher(owners []string, domain string) *PagesMatcher {
	if domain == "" {
		domain = DefaultPagesDomain
	}
	domain = strings.ToLower(domain)
	return &PagesMatcher{
		pattern: regexp.MustCompile(`^https?://([\w-]+)\.` + regexp.QuoteMeta(domain) + `/([\w-]+)`),
		owners:  owners,
		domain:  domain,
	}
}

// Match reports whether u is an eligible root and returns its repository.
func (m *PagesMatcher) Match(u model.NormalizedURL) (Repo, bool) {
	groups := m.pattern.FindStringSubmatch(u.String())
	if groups == nil {
		return Repo{}, false
	}
	repo := Repo{Owner: groups[1], Name: groups[2]}
	if !m.IsOwner(repo.Owner) {
		return Repo{}, false
	}
	return repo, true
}

// Domain returns the Pages host suffix the matcher accepts.
func (m *PagesMatcher) Domain() string {
	return m.domain
}

// IsOwner reports whether owner is eligible for caching.
func (m *PagesMatcher) IsOwner(owner string) bool {
	for _, o := range m.owners {
		if strings.EqualFold(o, owner) {
			return true
		}
	}
	return false
}

// MatchPages reports whether u is an eligible GitHub Pages root.
func MatchPages(u model.NormalizedURL, owners []string, domain string) (Repo, bool) {
	return NewPagesMatcher(owners, domain).Match(u)
}
