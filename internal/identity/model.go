package identity

import "time"

// User represents a registered account, keyed by email.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Active       bool
	Staff        bool
	CreatedAt    time.Time
	LastLogin    time.Time
}

// Profile is the wire representation of a user. The password hash never
// leaves the service boundary.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// NewProfile strips a User down to its public fields.
func NewProfile(u User) Profile {
	return Profile{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfileChanges carries a partial profile update. Nil fields are left
// untouched.
type ProfileChanges struct {
	Email     *string
	FirstName *string
	LastName  *string
}
