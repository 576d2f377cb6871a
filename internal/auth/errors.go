package auth

import "errors"

// Sentinel errors for every way a request can fail authorization. The HTTP
// layer maps each to a status code and machine-readable code via ToDomainError.
var (
	ErrMissingHeader      = errors.New("authorization header is missing")
	ErrMalformedHeader    = errors.New("authorization header must be of the form 'Bearer <token>'")
	ErrKeyNotFound        = errors.New("no signing key matches the token key id")
	ErrInvalidSignature   = errors.New("token signature verification failed")
	ErrTokenExpired       = errors.New("token has expired")
	ErrInvalidClaims      = errors.New("token claims are invalid")
	ErrPermissionsMissing = errors.New("permissions claim is missing from token")
	ErrPermissionDenied   = errors.New("permission not present in token")
)
