package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type JwtIssuer struct {
	secret secretProvider
	issuer string
	ttl    time.Duration
	typ    Type
	now    func() time.Time
}

type JwtConfig struct {
	Secret secretProvider
	Issuer string
	TTL    time.Duration
	Type   Type
}

func NewJWTIssuer(cfg JwtConfig) *JwtIssuer {
	return &JwtIssuer{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		typ:    cfg.Type,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for subject.
func (ti *JwtIssuer) Issue(subject string) (string, error) {
	now := ti.now()
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    ti.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		Type: ti.typ,
	}).SignedString(ti.secret.Get())

	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tk, nil
}

// Validate parses raw and checks its signature, expiry, issuer and type.
func (ti *JwtIssuer) Validate(raw string) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return ti.secret.Get(), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ti.issuer),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != ti.typ {
		return Claims{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidToken, claims.Type)
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return claims, nil
}

// Secret exposes the signing key for middleware that verifies tokens itself.
func (ti *JwtIssuer) Secret() []byte {
	return ti.secret.Get()
}

func (ti *JwtIssuer) Type() Type {
	return ti.typ
}
