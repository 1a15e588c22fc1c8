// Package model defines the data structures used throughout the application.
package model

import "time"

// Credential algorithm tags. A stored digest always carries the algorithm
// that produced it, so verification never has to guess from field presence.
const (
	AlgorithmBcrypt = "bcrypt"
)

// Credential is the stored form of a user's password: a one-way digest plus
// the tag of the algorithm that produced it.
type Credential struct {
	Algorithm string
	Digest    string
}

// IsZero reports whether no digest has been recorded.
func (c Credential) IsZero() bool {
	return c.Digest == ""
}

// User represents a registered account.
//
// Email is the login key. It is stored trimmed and lower-cased, which is what
// makes the UNIQUE constraint case-insensitive.
//
// Credential is tagged `json:"-"` so that no response can ever carry the
// password digest, even if a handler serializes a *User by accident.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Credential Credential `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// PublicUser is the identity triple returned by the auth endpoints.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips everything but id, name and email.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// ProfileUser is the user section of a profile page.
type ProfileUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user together with their posts, newest first.
type Profile struct {
	User  ProfileUser `json:"user"`
	Posts []Post      `json:"posts"`
}
