package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

const confirmationSubject = "Your YaMDb confirmation code"

// AuthService implements the confirmation-code signup and token exchange.
type AuthService struct {
	users  ports.UserRepository
	codes  *ConfirmationCodes
	signer ports.TokenSigner
	mailer ports.Mailer
	log    zerolog.Logger
	now    func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	codes *ConfirmationCodes,
	signer ports.TokenSigner,
	mailer ports.Mailer,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:  users,
		codes:  codes,
		signer: signer,
		mailer: mailer,
		log:    log,
		now:    time.Now,
	}
}

// RequestCode registers (username, email) if needed and mails a fresh
// confirmation code. Asking again for a registered pair just sends a new code.
func (s *AuthService) RequestCode(ctx context.Context, username, email string) (*ports.SignupResult, error) {
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}
	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	// Looked up separately so the caller learns which field collides.
	byName, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("request code: %w", err)
	}
	if byName != nil && byName.Email != email {
		return nil, domain.ErrUsernameTaken
	}
	byEmail, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("request code: %w", err)
	}
	if byEmail != nil && byEmail.Username != username {
		return nil, domain.ErrEmailTaken
	}

	user, err := s.users.GetOrCreate(ctx, username, email)
	if err != nil {
		return nil, err
	}

	code := s.codes.Make(user, s.now())
	msg := ports.MailMessage{
		To:      user.Email,
		Subject: confirmationSubject,
		Body:    fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n", user.Username, code),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Warn().Err(err).Str("username", user.Username).Msg("confirmation code delivery failed")
	}

	s.log.Info().Str("username", user.Username).Msg("confirmation code issued")
	return &ports.SignupResult{Username: user.Username, Email: user.Email}, nil
}

// ExchangeCode trades a valid confirmation code for an access token. A
// successful exchange advances last_login, which retires the code.
func (s *AuthService) ExchangeCode(ctx context.Context, username, code string) (string, error) {
	if username == "" || code == "" {
		return "", domain.ErrInvalidConfirmationCode
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	now := s.now()
	if !s.codes.Check(user, code, now) {
		s.log.Info().Str("username", username).Msg("confirmation code rejected")
		return "", domain.ErrInvalidConfirmationCode
	}

	loggedIn := now.UTC().Truncate(time.Millisecond)
	if err := s.users.MarkLoggedIn(ctx, user.ID, user.LastLogin, loggedIn); err != nil {
		return "", err
	}

	token, err := s.signer.Sign(ports.AccessClaims{UserID: user.ID, Username: user.Username})
	if err != nil {
		return "", fmt.Errorf("exchange code: sign token: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("access token issued")
	return token, nil
}
