package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/blogpress/internal/auth"
	"github.com/rs/zerolog/log"
)

type contextKey string

const sessionKey = contextKey("session")

// Options tune the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager moves sessions between the store, the request context and the cookie.
type Manager struct {
	store      Store
	keys       *auth.Keyring
	cookieName string
	ttl        time.Duration
	secure     bool
	now        func() time.Time
}

// NewManager creates a new Manager.
func NewManager(store Store, keys *auth.Keyring, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "blog_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{
		store:      store,
		keys:       keys,
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		now:        time.Now,
	}
}

// Store exposes the backing store, e.g. for the expiry sweeper.
func (m *Manager) Store() Store {
	return m.store
}

// Middleware resolves the session cookie and puts the session into the
// request context. Any problem with the cookie resolves to Anonymous.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := m.load(w, r)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) load(w http.ResponseWriter, r *http.Request) *Session {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return &Session{}
	}

	id, err := m.keys.Parse(cookie.Value)
	if err != nil {
		log.Debug().Err(err).Msg("Discarding session cookie with a bad signature")
		m.clearCookie(w)
		return &Session{}
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Msg("Failed to load session")
		}
		m.clearCookie(w)
		return &Session{}
	}

	if !sess.ExpiresAt.After(m.now()) {
		if err := m.store.Delete(r.Context(), sess.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		m.clearCookie(w)
		return &Session{}
	}
	return sess
}

// FromContext returns the request's session. Outside of Middleware it
// returns a detached Anonymous session.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionKey).(*Session); ok && sess != nil {
		return sess
	}
	return &Session{}
}

// Login moves the request from Anonymous to Authenticated(identity). A fresh
// token is always issued so a token seen before login is useless afterwards.
// Pending flashes carry over.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, identity string) error {
	if identity == "" {
		return errors.New("login requires an identity")
	}
	current := FromContext(r.Context())
	if current.ID != "" {
		if err := m.store.Delete(r.Context(), current.ID); err != nil {
			return err
		}
	}

	next := &Session{Username: identity, Flashes: current.Flashes}
	if err := m.persist(w, r, next); err != nil {
		return err
	}
	*current = *next
	return nil
}

// Logout returns the request to Anonymous. The cookie is cleared even if the
// store fails to forget the session.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	current := FromContext(r.Context())
	m.clearCookie(w)

	var err error
	if current.ID != "" {
		err = m.store.Delete(r.Context(), current.ID)
	}
	*current = Session{}
	return err
}

// AddFlash queues a notice for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	sess := FromContext(r.Context())
	sess.Flashes = append(sess.Flashes, Flash{Category: category, Message: message})
	if err := m.persist(w, r, sess); err != nil {
		log.Error().Err(err).Msg("Failed to persist flash message")
	}
}

// PopFlashes returns and clears the pending notices.
func (m *Manager) PopFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := FromContext(r.Context())
	if len(sess.Flashes) == 0 {
		return nil
	}
	flashes := sess.Flashes
	sess.Flashes = nil
	if err := m.persist(w, r, sess); err != nil {
		log.Error().Err(err).Msg("Failed to clear flash messages")
	}
	return flashes
}

// persist saves sess, allocating a token and cookie the first time. If the
// session was deleted meanwhile, e.g. by a concurrent logout, it is not
// revived: sess drops back to Anonymous and any pending flashes move to a
// fresh anonymous session.
func (m *Manager) persist(w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess.ID != "" {
		err := m.store.Save(r.Context(), sess)
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		*sess = Session{Flashes: sess.Flashes}
		if len(sess.Flashes) == 0 {
			m.clearCookie(w)
			return nil
		}
	}

	sess.ID = uuid.New().String()
	sess.ExpiresAt = m.now().Add(m.ttl)
	if err := m.store.Create(r.Context(), sess); err != nil {
		return err
	}

	token, err := m.keys.Sign(sess.ID, sess.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to sign session token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
