package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

func newTestAuthService(repo *stubUserRepo, mailer *stubMailer, now time.Time) *AuthService {
	svc := NewAuthService(repo, NewConfirmationCodes("secret", time.Hour*24), stubSigner{}, mailer, discardLogger)
	svc.now = func() time.Time { return now }
	return svc
}

var authNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestAuthService_RequestCode_RegistersAndMails(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)

	res, err := svc.RequestCode(context.Background(), "alice", "Alice@Example.COM")
	if err != nil {
		t.Fatalf("RequestCode returned error: %v", err)
	}
	if res.Username != "alice" || res.Email != "Alice@example.com" {
		t.Fatalf("unexpected result: %+v", res)
	}
	u, err := repo.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("new users must get role user, got %s", u.Role)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "Alice@example.com" {
		t.Fatalf("expected one mail to the user, got %+v", mailer.sent)
	}
	if mailer.lastCode() == "" {
		t.Fatalf("mail body carries no code: %q", mailer.sent[0].Body)
	}
}

func TestAuthService_RequestCode_ReservedUsername(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{}, authNow)

	_, err := svc.RequestCode(context.Background(), "me", "me@example.com")
	if !errors.Is(err, domain.ErrReservedUsername) {
		t.Fatalf("expected ErrReservedUsername, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("reserved username must be a validation error, got %v", err)
	}
}

func TestAuthService_RequestCode_InvalidEmail(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{}, authNow)

	if _, err := svc.RequestCode(context.Background(), "alice", "not-an-email"); !errors.Is(err, domain.ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestAuthService_RequestCode_Conflicts(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser})
	svc := newTestAuthService(repo, &stubMailer{}, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "other@example.com"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if _, err := svc.RequestCode(ctx, "bob", "alice@example.com"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.RequestCode(ctx, "bob", "alice@example.com"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("conflicts must carry the conflict kind, got %v", err)
	}
}

func TestAuthService_RequestCode_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if n := len(repo.byID); n != 1 {
		t.Fatalf("expected one stored user, got %d", n)
	}
	if len(mailer.sent) != 2 {
		t.Fatalf("expected a mail per request, got %d", len(mailer.sent))
	}
}

func TestAuthService_RequestCode_MailFailureStillSucceeds(t *testing.T) {
	mailer := &stubMailer{err: errors.New("smtp down")}
	svc := newTestAuthService(newStubUserRepo(), mailer, authNow)

	if _, err := svc.RequestCode(context.Background(), "alice", "alice@example.com"); err != nil {
		t.Fatalf("delivery failure must not fail the request: %v", err)
	}
}

func TestAuthService_ExchangeCode_RoundTrip(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	token, err := svc.ExchangeCode(ctx, "alice", mailer.lastCode())
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	claims, err := stubSigner{}.Verify(token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("token issued for %q", claims.Username)
	}

	u, _ := repo.FindByUsername(ctx, "alice")
	if u.LastLogin == nil || !u.LastLogin.Equal(authNow) {
		t.Fatalf("last_login not advanced: %v", u.LastLogin)
	}
}

func TestAuthService_ExchangeCode_WrongCode(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	for _, code := range []string{"", "garbage", "abc-0123456789abcdef0123456789abcdef"} {
		if _, err := svc.ExchangeCode(ctx, "alice", code); !errors.Is(err, domain.ErrInvalidConfirmationCode) {
			t.Fatalf("code %q: expected ErrInvalidConfirmationCode, got %v", code, err)
		}
	}
}

func TestAuthService_ExchangeCode_UnknownUser(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo(), &stubMailer{}, authNow)

	if _, err := svc.ExchangeCode(context.Background(), "ghost", "abc-def"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthService_ExchangeCode_CodeIsSingleUse(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := mailer.lastCode()
	if _, err := svc.ExchangeCode(ctx, "alice", code); err != nil {
		t.Fatalf("first exchange: %v", err)
	}

	svc.now = func() time.Time { return authNow.Add(time.Minute) }
	if _, err := svc.ExchangeCode(ctx, "alice", code); !errors.Is(err, domain.ErrInvalidConfirmationCode) {
		t.Fatalf("reused code: expected ErrInvalidConfirmationCode, got %v", err)
	}

	// A fresh code works again.
	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if _, err := svc.ExchangeCode(ctx, "alice", mailer.lastCode()); err != nil {
		t.Fatalf("fresh code rejected: %v", err)
	}
}

func TestAuthService_ExchangeCode_ConcurrentReuse(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := mailer.lastCode()

	const attempts = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		oks int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ExchangeCode(ctx, "alice", code); err == nil {
				mu.Lock()
				oks++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if oks != 1 {
		t.Fatalf("expected exactly one successful exchange, got %d", oks)
	}
}

func TestAuthService_ExchangeCode_Expired(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &stubMailer{}
	svc := newTestAuthService(repo, mailer, authNow)
	ctx := context.Background()

	if _, err := svc.RequestCode(ctx, "alice", "alice@example.com"); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	svc.now = func() time.Time { return authNow.Add(25 * time.Hour) }
	if _, err := svc.ExchangeCode(ctx, "alice", mailer.lastCode()); !errors.Is(err, domain.ErrInvalidConfirmationCode) {
		t.Fatalf("expected ErrInvalidConfirmationCode, got %v", err)
	}
}
