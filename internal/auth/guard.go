package auth

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("not authorized")
)

// Principal is anything that can report the identity of the current request.
type Principal interface {
	Identity() string
}

// RequireAuthenticated returns the identity of p, or ErrUnauthenticated when
// the request is anonymous.
func RequireAuthenticated(p Principal) (string, error) {
	if p == nil {
		return "", ErrUnauthenticated
	}
	identity := p.Identity()
	if identity == "" {
		return "", ErrUnauthenticated
	}
	return identity, nil
}

// RequireOwnership fails with ErrForbidden unless identity owns the resource.
func RequireOwnership(identity, resourceAuthor string) error {
	if identity == "" || identity != resourceAuthor {
		return ErrForbidden
	}
	return nil
}
