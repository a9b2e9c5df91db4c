package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/isdelr/blogpress/internal/auth"
	"github.com/isdelr/blogpress/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *SQLStore) {
	t.Helper()
	keys, err := auth.NewKeyring([]auth.Key{{ID: "test", Secret: []byte("test-secret")}})
	require.NoError(t, err)
	store := NewSQLStore(dbtest.New(t))
	return NewManager(store, keys, Options{CookieName: "sid", TTL: time.Hour}), store
}

// serve runs h behind the middleware with the given cookies and returns the recorder.
func serve(m *Manager, h http.HandlerFunc, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	m.Middleware(h).ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			found = c
		}
	}
	require.NotNil(t, found, "expected a session cookie")
	return found
}

func TestManager_AnonymousByDefault(t *testing.T) {
	m, _ := newTestManager(t)
	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		assert.False(t, sess.Authenticated())
		_, err := auth.RequireAuthenticated(sess)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
	assert.Empty(t, rec.Result().Cookies(), "no cookie until something needs persisting")
}

func TestManager_LoginLogoutLifecycle(t *testing.T) {
	m, store := newTestManager(t)

	// Anonymous visitor gets a flash, which creates an anonymous session.
	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		m.AddFlash(w, r, FlashDanger, "please log in")
	})
	anon := sessionCookie(t, rec)

	var anonID, authID string
	rec = serve(m, func(w http.ResponseWriter, r *http.Request) {
		anonID = FromContext(r.Context()).ID
		require.NoError(t, m.Login(w, r, "ada"))
		sess := FromContext(r.Context())
		authID = sess.ID
		assert.Equal(t, "ada", sess.Identity())
	}, anon)
	authed := sessionCookie(t, rec)

	assert.NotEqual(t, anonID, authID, "login rotates the token")
	_, err := store.Get(t.Context(), anonID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Old cookie no longer authenticates.
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	}, anon)

	// New cookie does, and still carries the pre-login flash.
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ada", FromContext(r.Context()).Identity())
		flashes := m.PopFlashes(w, r)
		require.Len(t, flashes, 1)
		assert.Equal(t, "please log in", flashes[0].Message)
		assert.Empty(t, m.PopFlashes(w, r))
	}, authed)

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Logout(w, r))
		assert.False(t, FromContext(r.Context()).Authenticated())
	}, authed)

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated(), "logged-out token is dead")
	}, authed)
}

func TestManager_RejectsForgedAndExpiredCookies(t *testing.T) {
	m, store := newTestManager(t)

	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(w, r, "ada"))
	})
	good := sessionCookie(t, rec)

	forged := &http.Cookie{Name: "sid", Value: good.Value + "tampered"}
	rec = serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	}, forged)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge, "bad cookie is cleared")

	// Expire the stored session behind the cookie's back.
	var id string
	serve(m, func(w http.ResponseWriter, r *http.Request) { id = FromContext(r.Context()).ID }, good)
	sess, err := store.Get(t.Context(), id)
	require.NoError(t, err)
	sess.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, store.Save(t.Context(), sess))

	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	}, good)
	_, err = store.Get(t.Context(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_LoginRequiresIdentity(t *testing.T) {
	m, _ := newTestManager(t)
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.Error(t, m.Login(w, r, ""))
	})
}

func TestManager_ConcurrentLogoutIsNotUndone(t *testing.T) {
	m, store := newTestManager(t)

	rec := serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Login(w, r, "ada"))
		m.AddFlash(w, r, FlashSuccess, "welcome")
	})
	authed := sessionCookie(t, rec)

	// Request A has loaded the session but not yet touched its flashes.
	reqA := httptest.NewRequest(http.MethodGet, "/", nil)
	reqA.AddCookie(authed)
	var loadedA *http.Request
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loadedA = r
	})).ServeHTTP(httptest.NewRecorder(), reqA)
	require.Equal(t, "ada", FromContext(loadedA.Context()).Identity())
	id := FromContext(loadedA.Context()).ID

	// Request B logs out in between.
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, m.Logout(w, r))
	}, authed)

	// Request A finishes and consumes its flashes.
	recA := httptest.NewRecorder()
	flashes := m.PopFlashes(recA, loadedA)
	assert.Len(t, flashes, 1)
	assert.False(t, FromContext(loadedA.Context()).Authenticated())

	_, err := store.Get(t.Context(), id)
	assert.ErrorIs(t, err, ErrNotFound, "logged-out session stays deleted")
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated(), "old token stays dead")
	}, authed)

	// A flash queued after the logout lands in a new anonymous session.
	recA = httptest.NewRecorder()
	m.AddFlash(recA, loadedA, FlashDanger, "bye")
	sess := FromContext(loadedA.Context())
	assert.NotEqual(t, id, sess.ID)
	assert.False(t, sess.Authenticated())
	anon := sessionCookie(t, recA)
	serve(m, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
		require.Len(t, m.PopFlashes(w, r), 1)
	}, anon)
}
