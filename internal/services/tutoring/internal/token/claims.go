package token

import "github.com/golang-jwt/jwt/v5"

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims are the registered claims plus the token type. The subject is the
// user's email.
type Claims struct {
	jwt.RegisteredClaims
	Type Type `json:"typ"`
}

// Pair is returned to clients after a successful login.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
