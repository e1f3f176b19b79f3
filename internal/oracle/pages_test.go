package oracle

import (
	"testing"

	"github.com/nao1215/sitehash/internal/model"
)

func TestMatchPages(t *testing.T) {
	t.Parallel()

	owners := []string{"ranchimall"}

	tests := []struct {
		name     string
		url      model.NormalizedURL
		wantRepo Repo
		wantOK   bool
	}{
		{
			name:     "eligible root",
			url:      "https://ranchimall.github.io/standard-operations/",
			wantRepo: Repo{Owner: "ranchimall", Name: "standard-operations"},
			wantOK:   true,
		},
		{
			name:     "eligible sub page",
			url:      "https://ranchimall.github.io/flo-wallet/index.html",
			wantRepo: Repo{Owner: "ranchimall", Name: "flo-wallet"},
			wantOK:   true,
		},
		{
			name:     "http scheme",
			url:      "http://ranchimall.github.io/repo_1/",
			wantRepo: Repo{Owner: "ranchimall", Name: "repo_1"},
			wantOK:   true,
		},
		{name: "other owner", url: "https://someone.github.io/repo/"},
		{name: "no repository", url: "https://ranchimall.github.io/"},
		{name: "other domain", url: "https://example.com/ranchimall/"},
		{name: "lookalike host", url: "https://ranchimall.github.io.evil.com/repo/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, ok := MatchPages(tt.url, owners, DefaultPagesDomain)
			if ok != tt.wantOK {
				t.Fatalf("MatchPages(%q) ok = %v, want %v", tt.url, ok, tt.wantOK)
			}
			if repo != tt.wantRepo {
				t.Errorf("MatchPages(%q) = %+v, want %+v", tt.url, repo, tt.wantRepo)
			}
		})
	}
}

func TestPagesMatcher_CustomDomain(t *testing.T) {
	t.Parallel()

	m := NewPagesMatcher([]string{"Acme", "other"}, "pages.example.org")

	repo, ok := m.Match("https://acme.pages.example.org/site/")
	if !ok {
		t.Fatal("expected match")
	}
	if repo.PagesURL("pages.example.org") != "https://acme.pages.example.org/site" {
		t.Errorf("unexpected pages URL %q", repo.PagesURL("pages.example.org"))
	}
	if _, ok := m.Match("https://acme.github.io/site/"); ok {
		t.Error("default domain must not match a custom matcher")
	}
	if !m.IsOwner("OTHER") {
		t.Error("owner comparison must be case-insensitive")
	}
}
