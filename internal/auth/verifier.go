package auth

import (
	"context"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Verifier validates bearer tokens against the identity provider's key set
// and the configured issuer and audience. Only RS256 tokens are accepted.
type Verifier struct {
	keys     *KeySet
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewVerifier constructs a verifier bound to a key set.
func NewVerifier(keys *KeySet, issuer, audience string) *Verifier {
	return &Verifier{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify parses and validates the token, returning its claims. Failures are
// collapsed into the package's sentinel errors; nothing else escapes.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		return nil, classifyParseError(err, claims)
	}
	if !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

// classifyParseError maps golang-jwt failures onto the package sentinels. An
// expired token is reported as expired even when its signature is also bad,
// so a caller never retries a token that can no longer succeed.
func classifyParseError(err error, claims *Claims) error {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return ErrKeyNotFound
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		if expired(claims) {
			return ErrTokenExpired
		}
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrInvalidClaims
	default:
		return ErrInvalidClaims
	}
}

func expired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
