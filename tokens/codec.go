// Package tokens issues and verifies the short-lived session tokens that let a
// customer order for one table.
package tokens

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fragisir/automatic-resturent-system/utils"
)

const issuer = "table-session"

// Claims are the verified contents of a session token.
type Claims struct {
	TableNumber int
	SessionID   string
	ExpiresAt   time.Time
}

// exp only has whole seconds once it goes through a float, so the exact expiry
// travels as integer nanoseconds in expNs.
type sessionClaims struct {
	Table     int    `json:"table"`
	SessionID string `json:"sessionId"`
	ExpNanos  int64  `json:"expNs"`
	jwt.RegisteredClaims
}

// Codec signs tokens with a process-wide HMAC secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session token secret is required")
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the session that stays valid for exactly ttl.
func (c *Codec) Issue(tableNumber int, sessionID string, ttl time.Duration) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(ttl)

	claims := sessionClaims{
		Table:     tableNumber,
		SessionID: sessionID,
		ExpNanos:  expiresAt.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify checks signature, expiry and table binding, in that order.
func (c *Codec) Verify(tableNumber int, token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, utils.NewError(utils.ErrTokenInvalid, "No token provided")
	}

	var parsed sessionClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, utils.WrapError(utils.ErrTokenInvalid, "Invalid token", err)
	}

	if parsed.Issuer != issuer || parsed.ExpNanos <= 0 || parsed.SessionID == "" {
		return Claims{}, utils.NewError(utils.ErrTokenInvalid, "Invalid token")
	}

	exp := time.Unix(0, parsed.ExpNanos).UTC()
	if !exp.After(c.now().UTC()) {
		return Claims{}, utils.NewError(utils.ErrTokenExpired, "Token expired")
	}

	if parsed.Table != tableNumber {
		return Claims{}, utils.NewError(utils.ErrTableMismatch, "Token does not match table number")
	}

	return Claims{
		TableNumber: parsed.Table,
		SessionID:   parsed.SessionID,
		ExpiresAt:   exp,
	}, nil
}
