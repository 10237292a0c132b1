// Package services contains server-side business logic: registration and
// login, request authentication, file intake, profile maintenance and
// admin operations. Every gated operation takes the caller's Identity as an
// explicit argument.
package services

import "github.com/dmitrijs2005/threatscope/internal/server/models"

// Identity is the resolved, trusted caller of an operation.
type Identity struct {
	UserID  string
	Name    string
	Email   string
	IsAdmin bool
}

func identityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin}
}
