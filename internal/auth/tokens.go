package auth

import (
	"errors"
	"time"

	"taskapi/internal/models/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed, tampered or wrong-type tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenConfig holds signing and lifetime settings.
type TokenConfig struct {
	SecretKey  string
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims are the JWT claims for both token types.
type Claims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the result of Issue.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService issues, verifies and refreshes bearer tokens. There is no
// revocation list: expiry is the only invalidation.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

func NewTokenService(config TokenConfig) *TokenService {
	return &TokenService{
		config: config,
		now:    time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// Issue produces a fresh access/refresh pair bound to identity.
func (s *TokenService) Issue(identity user.Identity) (TokenPair, error) {
	access, err := s.sign(identity, TokenTypeAccess, s.config.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(identity, TokenTypeRefresh, s.config.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify validates an access token and returns the embedded identity.
func (s *TokenService) Verify(access string) (user.Identity, error) {
	claims, err := s.parse(access, TokenTypeAccess)
	if err != nil {
		return user.Identity{}, err
	}
	return claims.identity()
}

// Refresh exchanges a valid refresh token for a new access token bound to
// the same identity. The refresh token itself is not rotated.
func (s *TokenService) Refresh(refresh string) (string, error) {
	claims, err := s.parse(refresh, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	identity, err := claims.identity()
	if err != nil {
		return "", err
	}
	return s.sign(identity, TokenTypeAccess, s.config.AccessTTL)
}

func (s *TokenService) sign(identity user.Identity, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:      identity.UserID.String(),
		Username:    identity.Username,
		IsStaff:     identity.IsStaff,
		IsSuperuser: identity.IsSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   identity.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

func (s *TokenService) parse(tokenString, tokenType string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(s.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *Claims) identity() (user.Identity, error) {
	id, err := uuid.Parse(c.UserID)
	if err != nil || c.Username == "" {
		return user.Identity{}, ErrInvalidToken
	}
	return user.Identity{
		UserID:      id,
		Username:    c.Username,
		IsStaff:     c.IsStaff,
		IsSuperuser: c.IsSuperuser,
	}, nil
}
