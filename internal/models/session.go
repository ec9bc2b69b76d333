package models

import "github.com/golang-jwt/jwt"

// Claims is the payload of a session token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
	jwt.StandardClaims
}
