package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/stagelist/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("invalid token")
	errTokenClaims  = errors.New("invalid token claims")
)

// Claims are the JWT claims of both access and refresh tokens.
type Claims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// TokenIssuer signs and verifies HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates an issuer; non-positive lifetimes take the defaults.
func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &TokenIssuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// Issue signs a new token pair for user.
func (t *TokenIssuer) Issue(user models.User) (TokenPair, error) {
	access, err := t.sign(user, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.sign(user, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: t.accessTTL}, nil
}

func (t *TokenIssuer) sign(user models.User, typ string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and claims of raw and that it is a token of type typ.
func (t *TokenIssuer) Verify(raw, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, errTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errTokenInvalid, err)
	}

	if claims.TokenType != typ || claims.Subject == "" || claims.Email == "" || claims.Subject != claims.UserID {
		return nil, errTokenClaims
	}
	return claims, nil
}

func describeTokenError(err error) string {
	switch {
	case errors.Is(err, errTokenExpired):
		return "Token expired"
	case errors.Is(err, errTokenClaims):
		return "Invalid token claims"
	default:
		return "Invalid token"
	}
}
