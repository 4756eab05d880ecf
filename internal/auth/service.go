package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of tokens minted by IssueToken.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSecret  = errors.New("jwt secret not configured")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token has no subject")
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Service validates HS256 access tokens. Sessions and sign-in live with the
// identity provider; this service only checks signatures and reads claims.
type Service struct {
	jwtSecret []byte
	issuer    string
	now       func() time.Time
}

// NewService creates a token service for secret.
func NewService(jwtSecret []byte) (*Service, error) {
	if len(jwtSecret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Service{jwtSecret: jwtSecret, issuer: "sprinta", now: time.Now}, nil
}

// IssueToken signs a token for userID. The CLI, the seeder and tests use it
// to act as a user without the identity provider.
func (s *Service) IssueToken(userID, email string, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, ErrMissingSubject
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"iss":   s.issuer,
		"exp":   expiresAt.Unix(),
		"iat":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken checks the signature and expiry of tokenString and returns
// the caller. The subject is read from "sub", or "user_id" for older tokens.
func (s *Service) ValidateToken(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return nil, ErrMissingSubject
	}

	identity := &Identity{UserID: userID}
	identity.Email, _ = claims["email"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		identity.ExpiresAt = exp.Time
	}
	return identity, nil
}
