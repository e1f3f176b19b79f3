package model

import (
	"errors"
	"testing"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  NormalizedURL
	}{
		{
			name:  "bare host gets https scheme and root path",
			input: "example.com",
			want:  "https://example.com/",
		},
		{
			name:  "trailing slash is kept",
			input: "example.com/",
			want:  "https://example.com/",
		},
		{
			name:  "http scheme is preserved",
			input: "http://example.com/page",
			want:  "http://example.com/page",
		},
		{
			name:  "query and fragment are stripped",
			input: "https://ranchimall.github.io/flo/?ref=abc#top",
			want:  "https://ranchimall.github.io/flo/",
		},
		{
			name:  "bare question mark is stripped",
			input: "https://example.com/a?",
			want:  "https://example.com/a",
		},
		{
			name:  "host is lowercased",
			input: "HTTPS://Example.COM/Path",
			want:  "https://example.com/Path",
		},
		{
			name:  "surrounding whitespace is trimmed",
			input: "  example.com/x  ",
			want:  "https://example.com/x",
		},
		{
			name:  "port is preserved",
			input: "localhost:8080/app",
			want:  "https://localhost:8080/app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		"https://",
		"https://exa mple.com/",
		"http://[::1",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := NormalizeURL(input)
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("NormalizeURL(%q) error = %v, want ErrInvalidURL", input, err)
			}
		})
	}
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"example.com",
		"https://ranchimall.github.io/flo",
		"http://example.com/a%20b/c?x=1#frag",
		"EXAMPLE.com:443/path/",
		"https://example.com/café",
		"https://user@example.com//double",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			once, err := NormalizeURL(input)
			if err != nil {
				t.Fatalf("first normalization failed: %v", err)
			}
			twice, err := NormalizeURL(once.String())
			if err != nil {
				t.Fatalf("second normalization failed: %v", err)
			}
			if once != twice {
				t.Errorf("normalization is not idempotent: %q -> %q", once, twice)
			}
		})
	}
}

func TestHasHTTPScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"http://a", true},
		{"https://a", true},
		{"HTTPS://a", true},
		{"ftp://a", false},
		{"a.com", false},
		{"httpsa.com", false},
	}

	for _, tt := range tests {
		if got := HasHTTPScheme(tt.input); got != tt.want {
			t.Errorf("HasHTTPScheme(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
