package domain

import "github.com/golang-jwt/jwt/v5"

// Claims identifies the operator calling the ops API
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
