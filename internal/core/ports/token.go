package ports

import "time"

// AccessClaims identify the bearer of an access token. The role is not
// part of the claims; it is read from the store on every request.
type AccessClaims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// TokenSigner issues and verifies self-contained access tokens with a
// process-wide secret.
type TokenSigner interface {
	Sign(claims AccessClaims) (string, error)
	Verify(token string) (*AccessClaims, error)
}
