package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/signon-id/signon/internal/config"
	"github.com/signon-id/signon/internal/identity"
	"github.com/signon-id/signon/internal/mail"
	"github.com/signon-id/signon/internal/passcode"
)

func testIssuer() *Issuer {
	return NewIssuer(config.Config{
		JWTSecret:       "access-secret",
		RefreshSecret:   "refresh-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	})
}

type fixture struct {
	users identity.Repository
	ids   *identity.Service
	codes *passcode.Service
	store passcode.Repository
	svc   *Service
}

func newFixture() fixture {
	users := identity.NewMemoryRepository()
	ids := identity.NewService(users)
	store := passcode.NewMemoryRepository()
	codes := passcode.NewService(store, users, ids, mail.NewLoggerMailer(nil), "noreply@signon.test")
	svc := NewService(users, ids, codes, testIssuer())
	return fixture{users: users, ids: ids, codes: codes, store: store, svc: svc}
}

func TestSignInWithPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	session, err := f.svc.SignIn(ctx, "a@b.com", "pw", "")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.Access == "" || session.Refresh == "" {
		t.Fatalf("expected token pair, got %+v", session)
	}
	if session.User.Email != "a@b.com" {
		t.Fatalf("expected user in response, got %+v", session.User)
	}

	claims, err := f.svc.issuer.ParseAccess(session.Access)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, claims.Subject)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.svc.SignIn(ctx, "a@b.com", "nope", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestSignInUnknownUser(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.SignIn(context.Background(), "ghost@b.com", "pw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestSignInNoCredentials(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := f.svc.SignIn(ctx, "a@b.com", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

type vetoAuthenticator struct{}

func (vetoAuthenticator) Authenticate(context.Context, string, string) (identity.User, error) {
	return identity.User{}, errors.New("vetoed")
}

func TestSignInSecondaryCheckVeto(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if _, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// The stored hash matches, but the secondary check disagrees: the
	// attempt must be rejected.
	strict := NewService(f.users, vetoAuthenticator{}, f.codes, testIssuer())
	if _, err := strict.SignIn(ctx, "a@b.com", "pw", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected rejection when secondary check fails, got %v", err)
	}
}

func TestSignInWithPasscode(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.store.Create(ctx, user.ID, "321654"); err != nil {
		t.Fatalf("create code: %v", err)
	}

	session, err := f.svc.SignIn(ctx, "a@b.com", "", "321654")
	if err != nil {
		t.Fatalf("passcode sign in: %v", err)
	}
	if session.User.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, session.User.ID)
	}

	// Single use: the same code cannot sign in twice.
	if _, err := f.svc.SignIn(ctx, "a@b.com", "", "321654"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials on reuse, got %v", err)
	}
}

func TestSignInPasswordTakesPrecedence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user, err := f.ids.Register(ctx, identity.RegisterInput{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := f.store.Create(ctx, user.ID, "321654"); err != nil {
		t.Fatalf("create code: %v", err)
	}

	// A wrong password rejects even when a valid passcode rides along.
	if _, err := f.svc.SignIn(ctx, "a@b.com", "wrong", "321654"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected password to take precedence, got %v", err)
	}

	// The passcode was ignored, not consumed.
	if _, err := f.svc.SignIn(ctx, "a@b.com", "", "321654"); err != nil {
		t.Fatalf("passcode should remain redeemable: %v", err)
	}
}
