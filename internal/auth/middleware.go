package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/coffeeshop-service/pkg/util"
)

const claimsKey = "auth_claims"

// Middleware is the authorization guard: it extracts the bearer token,
// verifies it, and stores the claims for downstream handlers. Permission
// checks are layered on per route with RequirePermission.
type Middleware struct {
	verifier *Verifier
}

// NewMiddleware constructs the guard.
func NewMiddleware(verifier *Verifier) *Middleware {
	return &Middleware{verifier: verifier}
}

// Authenticate enforces a valid bearer token for protected routes.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	token, err := BearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return ToDomainError(err)
	}
	claims, err := m.verifier.Verify(c.UserContext(), token)
	if err != nil {
		return ToDomainError(err)
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

// RequirePermission ensures the verified claims grant the permission.
func RequirePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			return ToDomainError(ErrInvalidClaims)
		}
		if err := claims.Require(permission); err != nil {
			return ToDomainError(err)
		}
		return c.Next()
	}
}

// ClaimsFromContext retrieves the verified claims stored by Authenticate.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

// ToDomainError maps an auth failure to its HTTP status and wire code.
// Token failures are 401, permission failures 403; anything unexpected is
// treated as an invalid token rather than propagated.
func ToDomainError(err error) error {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return apperrors.NewDomainError("missing_header", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrMalformedHeader):
		return apperrors.NewDomainError("malformed_header", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrKeyNotFound):
		return apperrors.NewDomainError("key_not_found", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrInvalidSignature):
		return apperrors.NewDomainError("invalid_signature", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrTokenExpired):
		return apperrors.NewDomainError("token_expired", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrInvalidClaims):
		return apperrors.NewDomainError("invalid_claims", err.Error(), http.StatusUnauthorized, nil)
	case errors.Is(err, ErrPermissionsMissing):
		return apperrors.NewDomainError("permissions_missing", err.Error(), http.StatusForbidden, nil)
	case errors.Is(err, ErrPermissionDenied):
		return apperrors.NewDomainError("unauthorized", err.Error(), http.StatusForbidden, nil)
	default:
		return apperrors.NewDomainError("invalid_claims", "token verification failed", http.StatusUnauthorized, nil)
	}
}
