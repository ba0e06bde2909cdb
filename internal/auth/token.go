package auth

import (
	"fmt"
	"time"

	"torres_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access token.
type Claims struct {
	UserID  string `json:"uid"`
	IsAdmin bool   `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs access tokens with the configured HMAC secret.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(cfg *config.Config) (*TokenIssuer, error) {
	method := jwt.GetSigningMethod(cfg.Security.Algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", cfg.Security.Algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not supported, use an HS* algorithm", cfg.Security.Algorithm)
	}
	if cfg.Security.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is empty")
	}

	return &TokenIssuer{
		secret: []byte(cfg.Security.SecretKey),
		method: method,
		ttl:    time.Duration(cfg.Security.AccessTokenExpireMinutes) * time.Minute,
		issuer: cfg.App.Name,
		now:    time.Now,
	}, nil
}

// Issue returns a signed token for the user and its expiry time.
func (t *TokenIssuer) Issue(userID, email string, isAdmin bool) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry of a token issued by Issue.
func (t *TokenIssuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
