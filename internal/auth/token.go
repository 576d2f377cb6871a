package auth

import "strings"

// BearerToken extracts the compact token from an Authorization header value.
// The header must carry exactly "Bearer <token>"; the scheme word is
// case-insensitive, anything else fails.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedHeader
	}
	return parts[1], nil
}
