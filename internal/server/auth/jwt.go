package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/decisionkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session payload: the standard claims carry the user id (sub),
// issue and expiry times; Email is the only custom claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (c *Claims) UserID() string {
	return c.Subject
}

// Issuer signs and verifies HS256 session tokens. Signature checks go through
// hmac.Equal inside jwt/v5, so comparison time does not depend on where the
// first differing byte is.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type IssuerOption func(*Issuer)

// WithClock overrides time.Now; used by tests to move across expiry.
func WithClock(now func() time.Time) IssuerOption {
	return func(i *Issuer) { i.now = now }
}

func NewIssuer(secret []byte, ttl time.Duration, opts ...IssuerOption) *Issuer {
	i := &Issuer{secret: secret, ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i
}

// TTL is the lifetime of issued tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue returns a signed token for the user together with its claims.
// expiresAt is exactly issuedAt + TTL.
func (i *Issuer) Issue(userID, email string) (string, *Claims, error) {
	// NumericDate has second precision.
	issuedAt := i.now().Truncate(time.Second)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.ttl)),
		},
		Email: email,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	return token, claims, nil
}

// Verify parses tokenString and returns its claims. It fails with
// common.ErrTokenExpired once now >= exp and with common.ErrInvalidToken for
// every other defect (bad signature, wrong algorithm, malformed input).
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
}
