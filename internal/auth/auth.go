// Package auth issues and checks session tokens.
//
// Tokens are HS256 JWTs naming the user and carrying a random token id, so a
// store can revoke individual sessions. Storage and revocation live with the
// caller.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrTokenExpired = errors.New("auth: token expired")
	ErrEmptySecret  = errors.New("auth: empty signing secret")
)

const DefaultTTL = 12 * time.Hour

// Validator validates an authentication token.
type Validator interface {
	Validate(token string) error
}

// StaticToken is a validator for a single shared token, used to guard the
// admin HTTP endpoint.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Claims are the registered JWT claims of a session. Subject holds the user
// id in decimal and ID the token id.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c Claims) UserID() (uint64, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrUnauthorized, c.Subject)
	}
	return id, nil
}

// Issuer signs and parses session tokens with one shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	name   string
	now    func() time.Time
}

type Option func(*Issuer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// WithName sets the iss claim. Tokens from another issuer are rejected.
func WithName(name string) Option {
	return func(i *Issuer) { i.name = name }
}

func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	i := &Issuer{secret: append([]byte(nil), secret...), ttl: ttl, name: "shiftd", now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for userID and returns it with its token id.
func (i *Issuer) Issue(userID uint64) (token, tokenID string, err error) {
	now := i.now()
	tokenID = uuid.NewString()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    i.name,
		Subject:   strconv.FormatUint(userID, 10),
		ID:        tokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", fmt.Errorf("auth: sign token: %w", err)
	}
	log.Debug().Uint64("user_id", userID).Str("jti", tokenID).Msg("auth.Issuer.Issue")
	return token, tokenID, nil
}

// Parse verifies the signature, issuer and expiry of token.
func (i *Issuer) Parse(token string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.name),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	default:
		log.Debug().Err(err).Msg("auth.Issuer.Parse rejected")
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.ID == "" {
		return Claims{}, fmt.Errorf("%w: missing token id", ErrUnauthorized)
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Validate makes Issuer a Validator.
func (i *Issuer) Validate(token string) error {
	_, err := i.Parse(token)
	return err
}
