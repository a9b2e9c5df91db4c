package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_SaltedAndVerifiable(t *testing.T) {
	h1, err := HashPassword("pw1234")
	require.NoError(t, err)
	h2, err := HashPassword("pw1234")
	require.NoError(t, err)

	assert.NotEqual(t, "pw1234", h1)
	assert.NotEqual(t, h1, h2, "each hash carries its own salt")
	assert.True(t, VerifyPassword("pw1234", h1))
	assert.True(t, VerifyPassword("pw1234", h2))
	assert.False(t, VerifyPassword("pw12345", h1))
}

func TestVerifyPassword_MalformedDigestFailsClosed(t *testing.T) {
	for _, digest := range []string{"", "plain", "$2a$10$short", "$5$rounds=535000$abc"} {
		assert.False(t, VerifyPassword("pw", digest), digest)
	}
}

type principal string

func (p principal) Identity() string { return string(p) }

func TestRequireAuthenticated(t *testing.T) {
	id, err := RequireAuthenticated(principal("ada"))
	require.NoError(t, err)
	assert.Equal(t, "ada", id)

	_, err = RequireAuthenticated(principal(""))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = RequireAuthenticated(nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRequireOwnership(t *testing.T) {
	assert.NoError(t, RequireOwnership("ada", "ada"))
	assert.ErrorIs(t, RequireOwnership("bob", "ada"), ErrForbidden)
	assert.ErrorIs(t, RequireOwnership("Ada", "ada"), ErrForbidden, "identities are case-sensitive")
	assert.ErrorIs(t, RequireOwnership("", ""), ErrForbidden)
}

func TestKeyring_SignAndParse(t *testing.T) {
	kr, err := NewKeyring([]Key{{ID: "v1", Secret: []byte("secret-one")}})
	require.NoError(t, err)

	tok, err := kr.Sign("session-123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	sid, err := kr.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "session-123", sid)
}

func TestKeyring_Rotation(t *testing.T) {
	old, err := NewKeyring([]Key{{ID: "v1", Secret: []byte("secret-one")}})
	require.NoError(t, err)
	tok, err := old.Sign("sid", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rotated, err := NewKeyring([]Key{
		{ID: "v2", Secret: []byte("secret-two")},
		{ID: "v1", Secret: []byte("secret-one")},
	})
	require.NoError(t, err)
	assert.Equal(t, "v2", rotated.ActiveKeyID())

	sid, err := rotated.Parse(tok)
	require.NoError(t, err, "tokens from a retired key still verify")
	assert.Equal(t, "sid", sid)

	dropped, err := NewKeyring([]Key{{ID: "v2", Secret: []byte("secret-two")}})
	require.NoError(t, err)
	_, err = dropped.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeyring_RejectsTamperedAndExpired(t *testing.T) {
	kr, err := NewKeyring([]Key{{ID: "v1", Secret: []byte("secret-one")}})
	require.NoError(t, err)

	tok, err := kr.Sign("sid", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = kr.Parse(tok + "x")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	expired, err := kr.Sign("sid", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = kr.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = kr.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewKeyring_Invalid(t *testing.T) {
	_, err := NewKeyring(nil)
	assert.Error(t, err)
	_, err = NewKeyring([]Key{{ID: "", Secret: []byte("x")}})
	assert.Error(t, err)
	_, err = NewKeyring([]Key{{ID: "a", Secret: []byte("x")}, {ID: "a", Secret: []byte("y")}})
	assert.Error(t, err)
}
