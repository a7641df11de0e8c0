package ports

import "context"

// SignupResult echoes the identity a confirmation code was sent for.
type SignupResult struct {
	Username string
	Email    string
}

// AuthService runs the passwordless handshake: a confirmation code is
// mailed to the address, then exchanged for an access token.
type AuthService interface {
	RequestCode(ctx context.Context, username, email string) (*SignupResult, error)
	ExchangeCode(ctx context.Context, username, code string) (string, error)
}
