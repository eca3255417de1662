package guard

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when the credential cannot be parsed or
	// its signature does not verify.
	ErrTokenMalformed = errors.New("guard: invalid token format")
	// ErrTokenExpired is returned for a structurally valid but expired
	// credential. Kept distinct so callers re-authenticate instead of
	// retrying identically.
	ErrTokenExpired = errors.New("guard: token expired")
)

// TokenClaims is the payload carried by a credential token: the principal
// identifier in Subject plus the registered expiry.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenVerifier validates HMAC-signed credential tokens against the
// process-wide signing secret. The secret is fixed at startup and never
// changes at runtime.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier constructs a TokenVerifier.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify checks signature and expiry and returns the principal identifier.
func (v *TokenVerifier) Verify(raw string) (string, error) {
	token, err := v.parser.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenMalformed
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}
