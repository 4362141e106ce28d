// Package identity issues and validates access tokens for customers, staff,
// and merchants.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"vendora/internal/platform/middleware"
	dErrors "vendora/pkg/domain-errors"
)

// Claims are the JWT claims carried by access tokens.
type Claims struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
	Locale  string `json:"locale,omitempty"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

// NewTokenService builds a token service. A zero ttl defaults to one hour.
func NewTokenService(signingKey, issuer string, tokenTTL time.Duration) *TokenService {
	if tokenTTL == 0 {
		tokenTTL = time.Hour
	}
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// GenerateToken signs an access token for the given actor.
func (s *TokenService) GenerateToken(actorID uuid.UUID, role, locale string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ActorID: actorID.String(),
		Role:    role,
		Locale:  locale,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken implements middleware.JWTValidator.
func (s *TokenService) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &middleware.JWTClaims{
		ActorID: claims.ActorID,
		Role:    claims.Role,
		Locale:  claims.Locale,
	}, nil
}
