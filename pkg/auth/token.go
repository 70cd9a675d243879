package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/surprisebag-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrMissingSubject is returned for tokens without a user id.
var ErrMissingSubject = errors.New("token has no user_id")

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// MintAccessToken signs an HS256 access token for actor. Tokens are
// normally minted by the identity service; local tooling and tests use this.
func MintAccessToken(cfg config.JWTConfig, actor Actor, ttl time.Duration, now time.Time) (string, error) {
	if actor.UserID == uuid.Nil {
		return "", ErrMissingSubject
	}
	claims := AccessTokenClaims{
		UserID: actor.UserID,
		Staff:  actor.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   actor.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
}
