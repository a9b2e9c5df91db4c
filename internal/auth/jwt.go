package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

// Key is a named HMAC secret.
type Key struct {
	ID     string
	Secret []byte
}

// Keyring signs session tokens with its active key and verifies tokens signed
// by any key it holds. The kid header selects the verification key.
type Keyring struct {
	active string
	keys   map[string][]byte
}

// NewKeyring builds a keyring; keys[0] becomes the active signing key.
func NewKeyring(keys []Key) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, errors.New("keyring needs at least one key")
	}
	kr := &Keyring{active: keys[0].ID, keys: make(map[string][]byte, len(keys))}
	for _, k := range keys {
		if k.ID == "" || len(k.Secret) == 0 {
			return nil, errors.New("keyring keys need an id and a secret")
		}
		if _, dup := kr.keys[k.ID]; dup {
			return nil, fmt.Errorf("duplicate key id %q", k.ID)
		}
		kr.keys[k.ID] = k.Secret
	}
	return kr, nil
}

// ActiveKeyID returns the id of the key used for signing.
func (k *Keyring) ActiveKeyID() string {
	return k.active
}

// Claims defines the session cookie claims.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Sign wraps a session token in a JWT that expires at expiresAt.
func (k *Keyring) Sign(sessionID string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = k.active
	return token.SignedString(k.keys[k.active])
}

// Parse verifies tokenStr and returns the session id it carries.
func (k *Keyring) Parse(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		secret, ok := k.keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}
