package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role       Role   `json:"role"`
	BuildingID string `json:"building_id"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for the actor. Login lives outside this
// service; this is used by tooling and tests.
func IssueToken(secret string, a Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role:       a.Role,
		BuildingID: a.BuildingID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and extracts the actor.
func ParseToken(secret, raw string) (Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return Actor{}, errors.New("parse token: missing subject")
	}
	switch claims.Role {
	case RoleOwner, RoleResident, RoleAdmin, RoleSuperAdmin:
	default:
		return Actor{}, fmt.Errorf("parse token: unknown role %q", claims.Role)
	}
	return Actor{UserID: claims.Subject, Role: claims.Role, BuildingID: claims.BuildingID}, nil
}
