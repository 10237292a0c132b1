// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash never leaves the server: it is excluded
// from JSON and from admin listings.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	Photo        *string   `json:"photo"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProfileUpdate carries the optional fields of a profile update. A nil field
// is left untouched in storage.
type ProfileUpdate struct {
	Name         *string
	PasswordHash *string
}

// Empty reports whether the update would change nothing.
func (u ProfileUpdate) Empty() bool {
	return u.Name == nil && u.PasswordHash == nil
}
