package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the JWT claims presented to the credit engine.
type Claims struct {
	jwt.RegisteredClaims
	BorrowerID string   `json:"borrower_id,omitempty"`
	Roles      []string `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// Borrower returns the borrower the token speaks for, falling back to the
// subject when no explicit borrower claim is present.
func (c Claims) Borrower() string {
	if c.BorrowerID != "" {
		return c.BorrowerID
	}
	return c.Subject
}

// Role constants
const (
	RoleBorrower      = "borrower"
	RoleCreditOfficer = "credit_officer"
	RoleService       = "service"
)
