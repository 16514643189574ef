package restemu

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

type Role string

const (
	RoleAnon          Role = "anon"
	RoleAuthenticated Role = "authenticated"
	RoleService       Role = "service_role"
)

var (
	ErrMissingToken = errors.New("missing api key")
	ErrInvalidToken = errors.New("invalid api key")
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (r Role) canWrite() bool {
	return r == RoleService
}

// MintKey signs an API key for the role. ttl <= 0 gives a key without expiry.
func MintKey(secret string, role Role, ttl time.Duration) (string, error) {
	c := claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   "logitrack-emulator",
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(ttl))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "sign key")
	}
	return s, nil
}

// requestToken prefers the bearer token and falls back to the apikey header.
func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(r.Header.Get("apikey"))
}

func (s *Server) authenticate(r *http.Request) (Role, error) {
	tok := requestToken(r)
	if tok == "" {
		return "", ErrMissingToken
	}

	var c claims
	_, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(ErrInvalidToken, err.Error())
	}

	switch role := Role(c.Role); role {
	case RoleAnon, RoleAuthenticated, RoleService:
		return role, nil
	default:
		return "", errors.Wrapf(ErrInvalidToken, "unknown role %q", c.Role)
	}
}

type roleKey struct{}

func withRole(ctx context.Context, r Role) context.Context {
	return context.WithValue(ctx, roleKey{}, r)
}

func roleFrom(ctx context.Context) Role {
	r, _ := ctx.Value(roleKey{}).(Role)
	return r
}
