// Package token signs and verifies the bearer tokens used by the auth flows.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates the three token flavours. A token of one kind is never
// accepted where another kind is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindReset   Kind = "reset"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// expiry, kind mismatch or a garbled token. Callers never learn which check
// failed.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload: the registered subject carries the user's
// email, Type carries the Kind.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// Codec issues and verifies tokens with a single shared secret.
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

// NewCodec builds a codec for the named HMAC algorithm (HS256/HS384/HS512).
func NewCodec(secret, algorithm string, accessTTL, refreshTTL, resetTTL time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("signing secret is required")
	}
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an HMAC method", algorithm)
	}
	return &Codec{
		secret:     []byte(secret),
		method:     method,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
	}, nil
}

// IssueAccess signs a short-lived access token for the subject.
func (c *Codec) IssueAccess(subject string) (string, error) {
	token, _, err := c.issue(subject, KindAccess, c.accessTTL)
	return token, err
}

// IssueRefresh signs a long-lived refresh token and returns its expiry so the
// caller can persist it alongside the token.
func (c *Codec) IssueRefresh(subject string) (string, time.Time, error) {
	return c.issue(subject, KindRefresh, c.refreshTTL)
}

// IssueReset signs a password-reset token and returns its expiry.
func (c *Codec) IssueReset(subject string) (string, time.Time, error) {
	return c.issue(subject, KindReset, c.resetTTL)
}

func (c *Codec) issue(subject string, kind Kind, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// unique id so two tokens issued within the same second
			// still differ; rotation depends on that
			ID: uuid.NewString(),
		},
		Type: string(kind),
	}

	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and kind, returning the subject on success.
// Signature and expiry checks come from the JWT library; the kind and a
// non-empty subject are enforced here.
func (c *Codec) Verify(tokenString string, kind Kind) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Type != string(kind) || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
