// Package session tracks who is behind a request. A session is a row in a
// Store keyed by an opaque token; the browser holds that token in a signed
// cookie. A session with an empty Username is Anonymous and only exists to
// carry flash notices across a redirect.
package session

import (
	"context"
	"errors"
	"time"
)

// Flash categories understood by the view layer.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
)

var ErrNotFound = errors.New("session not found")

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the server-side state behind a session token.
type Session struct {
	ID        string
	Username  string // empty while Anonymous
	Flashes   []Flash
	ExpiresAt time.Time
}

// Identity returns the authenticated username, or "" for Anonymous.
func (s *Session) Identity() string {
	if s == nil {
		return ""
	}
	return s.Username
}

// Authenticated reports whether the session carries an identity.
func (s *Session) Authenticated() bool {
	return s.Identity() != ""
}

// Store persists sessions by token.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	// Create stores a session under a fresh token.
	Create(ctx context.Context, s *Session) error
	// Save updates an existing session. It returns ErrNotFound once the
	// session has been deleted, so a logged-out token is never revived.
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired purges sessions that expired before now and reports how many went.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
