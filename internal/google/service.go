package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/signon-id/signon/internal/auth"
	"github.com/signon-id/signon/internal/identity"
)

// ErrTokenMissing indicates a login request without a token.
var ErrTokenMissing = errors.New("Token is missing")

// Only tokens asserted by Google itself are accepted.
var allowedIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Service handles Google-federated login: verify the token, check the
// issuer, provision the user on first sight, issue session tokens.
type Service struct {
	verifier TokenVerifier
	ids      *identity.Service
	sessions *auth.Service
	audience string
}

// NewService creates a federated login service. audience is the OAuth
// client ID the tokens must be minted for.
func NewService(verifier TokenVerifier, ids *identity.Service, sessions *auth.Service, audience string) *Service {
	return &Service{verifier: verifier, ids: ids, sessions: sessions, audience: audience}
}

// Login verifies the ID token and returns a session for its subject. The
// user is created on first login, with the asserted names as defaults;
// existing users are returned untouched and no password is ever set.
func (s *Service) Login(ctx context.Context, idToken string) (auth.SessionResponse, error) {
	if idToken == "" {
		return auth.SessionResponse{}, ErrTokenMissing
	}

	claims, err := s.verifier.Verify(ctx, idToken, s.audience)
	if err != nil {
		return auth.SessionResponse{}, err
	}

	if !issuerAllowed(claims.Issuer) {
		return auth.SessionResponse{}, fmt.Errorf("%w: wrong issuer", ErrInvalidToken)
	}

	user, err := s.ids.GetOrCreate(ctx, claims.Email, claims.GivenName, claims.FamilyName)
	if err != nil {
		return auth.SessionResponse{}, err
	}

	return s.sessions.Session(user)
}

func issuerAllowed(issuer string) bool {
	for _, allowed := range allowedIssuers {
		if issuer == allowed {
			return true
		}
	}
	return false
}
