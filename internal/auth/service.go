package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/signon-id/signon/internal/identity"
	"github.com/signon-id/signon/internal/passcode"
)

// ErrInvalidCredentials is the uniform sign-in failure. Wrong password,
// wrong passcode and unknown user all collapse into it so the sign-in
// path never reveals whether an account exists.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator confirms an email/password pair independently of the
// direct hash comparison performed by the verifier.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (identity.User, error)
}

// Service unifies password-based and passcode-based sign-in into one
// decision and issues session tokens for the winner.
type Service struct {
	users  identity.Repository
	authn  Authenticator
	codes  *passcode.Service
	issuer *Issuer
}

// NewService creates a credential verifier. authn is typically the
// identity service; tests may substitute a stricter or failing check.
func NewService(users identity.Repository, authn Authenticator, codes *passcode.Service, issuer *Issuer) *Service {
	return &Service{users: users, authn: authn, codes: codes, issuer: issuer}
}

// SessionResponse is the body returned on successful authentication.
type SessionResponse struct {
	Refresh string           `json:"refresh"`
	Access  string           `json:"access"`
	User    identity.Profile `json:"user"`
}

// SignIn authenticates with either a password or a passcode. When both
// are supplied the password takes precedence and the passcode is ignored.
func (s *Service) SignIn(ctx context.Context, email, password, code string) (SessionResponse, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return SessionResponse{}, ErrInvalidCredentials
	}

	switch {
	case password != "":
		// Two independent confirmations: the stored hash must match and
		// the application-level check must agree. Either one dissenting
		// rejects the attempt.
		if len(user.PasswordHash) == 0 {
			return SessionResponse{}, ErrInvalidCredentials
		}
		if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
			return SessionResponse{}, ErrInvalidCredentials
		}
		confirmed, err := s.authn.Authenticate(ctx, email, password)
		if err != nil {
			return SessionResponse{}, ErrInvalidCredentials
		}
		return s.Session(confirmed)
	case code != "":
		redeemed, err := s.codes.RedeemSignIn(ctx, email, code)
		if err != nil {
			return SessionResponse{}, ErrInvalidCredentials
		}
		return s.Session(redeemed)
	default:
		return SessionResponse{}, ErrInvalidCredentials
	}
}

// Session issues a token pair for an already-verified identity.
func (s *Service) Session(user identity.User) (SessionResponse, error) {
	pair, err := s.issuer.Issue(user)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{Refresh: pair.Refresh, Access: pair.Access, User: identity.NewProfile(user)}, nil
}
