package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/climatica/climatica/internal/apperr"
)

// Access tokens are short-lived HS256 JWTs whose subject is the account id.
// There is no refresh flow: clients log in again once a token expires.

// AccessTokenExpiry is the default access token lifetime.
const AccessTokenExpiry = 1 * time.Hour

// Token errors.
var (
	ErrInvalidAccessToken = apperr.Unauthorized("invalid access token")
	ErrAccessTokenExpired = apperr.Unauthorized("access token has expired")
)

// JWTClaims are the claims of an access token.
type JWTClaims struct {
	jwt.RegisteredClaims

	AccountID int64 `json:"aid"`
}

// JWTConfig configures token signing. Issuer and Audience are written into
// every token and required on validation.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string

	// TTL defaults to AccessTokenExpiry.
	TTL time.Duration
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// JWTService issues and validates access tokens.
type JWTService struct {
	key      []byte
	ttl      time.Duration
	clock    clockwork.Clock
	issuer   string
	audience string
	parser   *jwt.Parser
}

// NewJWTService creates a JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = AccessTokenExpiry
	}
	return &JWTService{
		key:      []byte(cfg.SigningKey),
		ttl:      cfg.TTL,
		clock:    cfg.Clock,
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(cfg.Clock.Now),
		),
	}
}

// GenerateAccessToken issues a token for accountID and reports its expiry.
func (s *JWTService) GenerateAccessToken(accountID int64) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(accountID, 10),
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		AccountID: accountID,
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, issuer, audience and lifetime, and
// checks that the subject matches the account id claim.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	case claims.AccountID <= 0 || claims.Subject != strconv.FormatInt(claims.AccountID, 10):
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
