package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrValidation indicates a required registration field is missing.
	ErrValidation = errors.New("validation failed")

	// ErrBadCredentials indicates the supplied password does not match or
	// the account is disabled.
	ErrBadCredentials = errors.New("bad credentials")
)

// Service manages account lifecycle: registration, password verification
// and profile maintenance.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates a new active user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if input.Password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrValidation)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if exists {
		return User{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies an email/password pair against the stored hash and
// requires the account to be active. It serves as the application-level
// confirmation behind password sign-in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, ErrBadCredentials
	}
	if len(user.PasswordHash) == 0 {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	if !user.Active {
		return User{}, ErrBadCredentials
	}
	return user, nil
}

// GetOrCreate fetches the user owning email, provisioning an active
// passwordless account with the given names when none exists. Names are
// creation defaults only; existing users are returned untouched.
func (s *Service) GetOrCreate(ctx context.Context, email, firstName, lastName string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user = User{
		ID:        uuid.New().String(),
		Email:     NormalizeEmail(email),
		FirstName: firstName,
		LastName:  lastName,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateProfile applies a partial profile update and refreshes the last
// login timestamp.
func (s *Service) UpdateProfile(ctx context.Context, id string, changes ProfileChanges) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if changes.Email != nil {
		email := NormalizeEmail(*changes.Email)
		if email == "" {
			return User{}, fmt.Errorf("%w: email cannot be empty", ErrValidation)
		}
		if email != user.Email {
			taken, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return User{}, err
			}
			if taken {
				return User{}, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if changes.FirstName != nil {
		user.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		user.LastName = *changes.LastName
	}
	user.LastLogin = time.Now().UTC()

	if err := s.repo.Save(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdatePassword replaces the password after verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: both current and new passwords are required", ErrValidation)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(currentPassword)); err != nil {
		return ErrBadCredentials
	}
	return s.SetPassword(ctx, id, newPassword)
}

// SetPassword overwrites the stored hash without checking the old one.
// Used by the password-reset flow, where possession of a valid reset code
// stands in for the current password.
func (s *Service) SetPassword(ctx context.Context, id, newPassword string) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.repo.Save(ctx, user)
}
