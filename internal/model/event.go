package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidTimestamp is returned when a push timestamp is neither a unix
// seconds number nor an RFC 3339 string.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// PushEvent is an upstream notification that a repository received new content.
// It is consumed once by the invalidation controller and never persisted.
type PushEvent struct {
	// Organization is the owning organization (or user) login.
	Organization string

	// RepositoryName is the repository name, which is also the pages path.
	RepositoryName string

	// PushedAt is when the push happened. It becomes the cache entry's
	// LastUpdated marker.
	PushedAt time.Time

	// HasPages reports whether the repository publishes a pages site.
	HasPages bool
}

// Timestamp decodes the two shapes GitHub uses for repository times:
// push payloads send unix seconds, the REST API sends RFC 3339 strings.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
		}
		t.Time = parsed.UTC()
		return nil
	}

	secs, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, data)
	}
	t.Time = time.Unix(secs, 0).UTC()
	return nil
}

// MarshalJSON implements json.Marshaler using RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// pushPayload is the subset of a GitHub webhook body we read.
type pushPayload struct {
	Repository *struct {
		Name         string    `json:"name"`
		Organization string    `json:"organization"`
		PushedAt     Timestamp `json:"pushed_at"`
		HasPages     bool      `json:"has_pages"`
		Owner        struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
}

// ErrMissingRepository is returned when a webhook body has no repository object.
var ErrMissingRepository = errors.New("webhook payload has no repository")

// ParsePushEvent decodes a GitHub webhook body into a PushEvent.
// The organization falls back to the owner login for repositories owned by
// a user account.
func ParsePushEvent(body []byte) (PushEvent, error) {
	var p pushPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return PushEvent{}, fmt.Errorf("failed to decode webhook payload: %w", err)
	}
	if p.Repository == nil {
		return PushEvent{}, ErrMissingRepository
	}

	org := p.Repository.Organization
	if org == "" {
		org = p.Repository.Owner.Login
	}

	return PushEvent{
		Organization:   org,
		RepositoryName: p.Repository.Name,
		PushedAt:       p.Repository.PushedAt.Time,
		HasPages:       p.Repository.HasPages,
	}, nil
}
