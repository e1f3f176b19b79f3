package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "unix seconds", input: `1709294400`, want: want},
		{name: "rfc3339 string", input: `"2024-03-01T12:00:00Z"`, want: want},
		{name: "rfc3339 with offset", input: `"2024-03-01T21:00:00+09:00"`, want: want},
		{name: "null", input: `null`, want: time.Time{}},
		{name: "empty string", input: `""`, want: time.Time{}},
		{name: "garbage string", input: `"yesterday"`, wantErr: true},
		{name: "float", input: `1.5`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Errorf("expected ErrInvalidTimestamp, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("got %v, want %v", ts.Time, tt.want)
			}
		})
	}
}

func TestParsePushEvent(t *testing.T) {
	t.Parallel()

	t.Run("organization push", func(t *testing.T) {
		t.Parallel()

		body := `{
			"ref": "refs/heads/main",
			"repository": {
				"name": "flo-wallet",
				"organization": "ranchimall",
				"pushed_at": 1709294400,
				"has_pages": true,
				"owner": {"login": "ranchimall"}
			}
		}`

		ev, err := ParsePushEvent([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Organization != "ranchimall" {
			t.Errorf("expected organization ranchimall, got %q", ev.Organization)
		}
		if ev.RepositoryName != "flo-wallet" {
			t.Errorf("expected repository flo-wallet, got %q", ev.RepositoryName)
		}
		if !ev.HasPages {
			t.Error("expected HasPages to be true")
		}
		if ev.PushedAt.Unix() != 1709294400 {
			t.Errorf("unexpected PushedAt %v", ev.PushedAt)
		}
	})

	t.Run("user repository falls back to owner login", func(t *testing.T) {
		t.Parallel()

		body := `{"repository": {"name": "site", "owner": {"login": "alice"}, "has_pages": false}}`

		ev, err := ParsePushEvent([]byte(body))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ev.Organization != "alice" {
			t.Errorf("expected organization alice, got %q", ev.Organization)
		}
		if ev.HasPages {
			t.Error("expected HasPages to be false")
		}
	})

	t.Run("missing repository", func(t *testing.T) {
		t.Parallel()

		_, err := ParsePushEvent([]byte(`{"zen": "Keep it logically awesome."}`))
		if !errors.Is(err, ErrMissingRepository) {
			t.Errorf("expected ErrMissingRepository, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()

		if _, err := ParsePushEvent([]byte(`{`)); err == nil {
			t.Error("expected error for malformed json")
		}
	})
}
