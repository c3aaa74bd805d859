package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for portal access tokens. Tokens
// are issued by the upstream auth endpoint and validated here with the
// shared secret.
type JWTClaims struct {
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
