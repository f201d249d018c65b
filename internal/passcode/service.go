package passcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/signon-id/signon/internal/identity"
	"github.com/signon-id/signon/internal/mail"
)

var (
	// ErrEmailRequired indicates an issuance request without an email.
	ErrEmailRequired = errors.New("email is required")

	// ErrInvalidCode is the uniform redemption failure. It deliberately
	// covers unknown user, unknown code and lost redemption races alike so
	// callers cannot probe for account existence.
	ErrInvalidCode = errors.New("invalid or expired code")

	// ErrFieldsRequired indicates a reset redemption missing the code or
	// the new password.
	ErrFieldsRequired = errors.New("passcode and new password are required")
)

const defaultResetSubject = "Password Reset Code"

// Service orchestrates the passcode lifecycle: issue, deliver, redeem.
type Service struct {
	codes  Repository
	users  identity.Repository
	ids    *identity.Service
	mailer mail.Mailer
	from   string
}

// NewService creates a passcode lifecycle service.
func NewService(codes Repository, users identity.Repository, ids *identity.Service, mailer mail.Mailer, from string) *Service {
	return &Service{codes: codes, users: users, ids: ids, mailer: mailer, from: from}
}

// IssueSignIn generates and emails a sign-on code for an address that is
// not yet registered. The code is returned to the caller and deliberately
// not persisted: the client presents it back during registration, before
// any account exists to bind it to.
func (s *Service) IssueSignIn(ctx context.Context, email string) (string, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if exists {
		return "", identity.ErrEmailTaken
	}

	code, err := Generate()
	if err != nil {
		return "", err
	}

	err = s.mailer.Send(ctx, mail.Message{
		Subject: "Sign-On Code",
		Body:    fmt.Sprintf("Your sign-on code is: %s", code),
		From:    s.from,
		To:      email,
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// IssueReset generates, persists and emails a password-reset code for an
// existing user. The code reaches the user only through the delivery
// channel; it is never echoed to the caller.
func (s *Service) IssueReset(ctx context.Context, email, subject string) error {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	code, err := Generate()
	if err != nil {
		return err
	}

	if _, err := s.codes.Create(ctx, user.ID, code); err != nil {
		return err
	}

	if strings.TrimSpace(subject) == "" {
		subject = defaultResetSubject
	}
	return s.mailer.Send(ctx, mail.Message{
		Subject: subject,
		Body:    fmt.Sprintf("Your password reset code is: %s", code),
		From:    s.from,
		To:      user.Email,
	})
}

// RedeemSignIn consumes an unused code issued to the user owning email and
// returns that user. Every failure mode collapses to ErrInvalidCode.
func (s *Service) RedeemSignIn(ctx context.Context, email, code string) (identity.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return identity.User{}, ErrInvalidCode
	}

	rec, err := s.codes.FindUnused(ctx, user.ID, code)
	if err != nil {
		return identity.User{}, ErrInvalidCode
	}

	// Losing the claim to a concurrent redemption reads the same as a
	// code that never existed.
	if err := s.codes.MarkUsed(ctx, rec.ID); err != nil {
		return identity.User{}, ErrInvalidCode
	}

	return user, nil
}

// RedeemReset consumes an unused code matched on its value alone and sets
// the owning user's password. The owner is implied by the record; a code
// colliding across users redeems against the most recently issued match.
func (s *Service) RedeemReset(ctx context.Context, code, newPassword string) error {
	if code == "" || newPassword == "" {
		return ErrFieldsRequired
	}

	rec, err := s.codes.FindUnused(ctx, "", code)
	if err != nil {
		return ErrInvalidCode
	}

	// Claim the record before touching the password so two concurrent
	// redemptions cannot both reset it.
	if err := s.codes.MarkUsed(ctx, rec.ID); err != nil {
		return ErrInvalidCode
	}

	return s.ids.SetPassword(ctx, rec.UserID, newPassword)
}
