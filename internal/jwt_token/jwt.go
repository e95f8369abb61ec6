// Package jwttoken mints and verifies the HS256 access tokens carematch
// accepts. The subject is the user id; the role travels in a private claim.
package jwttoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/middleware/auth"
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	key    []byte
	issuer string
	leeway time.Duration
	clock  func() time.Time
}

type Option func(*Service)

// WithLeeway tolerates clock skew between the issuer and this service.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(signingKey, issuer string, opts ...Option) *Service {
	s := &Service{key: []byte(signingKey), issuer: issuer, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint signs a token for userID valid for ttl.
func (s *Service) Mint(userID id.UserID, role id.Role, ttl time.Duration) (string, error) {
	now := s.clock()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString(s.key)
}

func unauthorized(msg string) error {
	return dErrors.New(dErrors.CodeUnauthorized, msg)
}

// Authenticate verifies signature, issuer and expiry, then resolves the
// subject and role into a Principal.
func (s *Service) Authenticate(_ context.Context, token string) (auth.Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.clock),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return auth.Principal{}, unauthorized("token has expired")
	case err != nil:
		return auth.Principal{}, unauthorized("invalid token")
	}

	userID, err := id.ParseUserID(c.Subject)
	if err != nil {
		return auth.Principal{}, unauthorized("token subject is not a user id")
	}
	role, err := id.ParseRole(c.Role)
	if err != nil {
		return auth.Principal{}, unauthorized("token carries an unknown role")
	}
	return auth.Principal{UserID: userID, Role: role, TokenID: c.ID}, nil
}
