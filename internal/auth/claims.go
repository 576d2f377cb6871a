package auth

import (
	jwt "github.com/golang-jwt/jwt/v5"
)

// Claims describes the verified JWT payload. Permissions stays nil when the
// token carries no permissions claim at all, which is distinct from an empty
// list.
type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the claim set grants the permission.
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Require checks that the claim set grants the permission. A token without a
// permissions claim fails differently from one whose list lacks the entry.
func (c *Claims) Require(permission string) error {
	if c.Permissions == nil {
		return ErrPermissionsMissing
	}
	if !c.HasPermission(permission) {
		return ErrPermissionDenied
	}
	return nil
}
