package store

import (
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/BearBump/LogiTrack/config"
)

const (
	placeholderProjectRef = "YOUR_PROJECT_REF"
	minTokenLength        = 32
)

type Tier string

const (
	TierPublic Tier = "public"
	TierSecret Tier = "secret"
)

// Grant is the token a role is allowed to use, together with the tier it comes from.
type Grant struct {
	Token string
	Tier  Tier
	// Downgraded reports that an admin request runs on the public key.
	Downgraded bool
}

type Settings struct {
	Enabled        bool
	BaseURL        string
	PublishableKey string
	SecretKey      string
	// DisableAdminPublicFallback stops the admin role from using the publishable key
	// when no secret is configured.
	DisableAdminPublicFallback bool
	Timeout                    time.Duration
}

const defaultTimeout = 10 * time.Second

// FromConfig builds Settings from the store section of the config file.
func FromConfig(c config.StoreConfig) Settings {
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return Settings{
		Enabled:                    c.Enabled,
		BaseURL:                    c.BaseURL,
		PublishableKey:             c.PublishableKey,
		SecretKey:                  c.SecretKey,
		DisableAdminPublicFallback: c.DisableAdminPublicFallback,
		Timeout:                    timeout,
	}
}

func usableToken(t string) bool {
	return len(strings.TrimSpace(t)) >= minTokenLength
}

// TokenFor applies the two-tier capability policy:
//
//	customer -> public key
//	admin    -> secret key, or public key unless DisableAdminPublicFallback is set
func (s Settings) TokenFor(role Role) (Grant, error) {
	switch role {
	case RoleCustomer:
		if !usableToken(s.PublishableKey) {
			return Grant{}, errors.Wrap(ErrConfigNotReady, "publishable key is missing")
		}
		return Grant{Token: s.PublishableKey, Tier: TierPublic}, nil
	case RoleAdmin:
		if usableToken(s.SecretKey) {
			return Grant{Token: s.SecretKey, Tier: TierSecret}, nil
		}
		if !s.DisableAdminPublicFallback && usableToken(s.PublishableKey) {
			return Grant{Token: s.PublishableKey, Tier: TierPublic, Downgraded: true}, nil
		}
		return Grant{}, errors.Wrap(ErrConfigNotReady, "secret key is missing")
	default:
		return Grant{}, errors.Errorf("unknown role %q", role)
	}
}

// Ready is the configuration readiness predicate. Remote calls are skipped when it fails.
func (s Settings) Ready(role Role) error {
	if !s.Enabled {
		return errors.Wrap(ErrConfigNotReady, "remote store disabled")
	}
	if strings.TrimSpace(s.BaseURL) == "" {
		return errors.Wrap(ErrConfigNotReady, "base url is empty")
	}
	if strings.Contains(s.BaseURL, placeholderProjectRef) {
		return errors.Wrap(ErrConfigNotReady, "base url still contains the placeholder")
	}
	_, err := s.TokenFor(role)
	return err
}

// KeyRole reads the "role" claim of a store key without verifying its signature.
// Keys that are not JWTs return "".
func KeyRole(token string) string {
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return role
}

// Audit logs which tier each role ends up with, so the effective posture shows up in the logs.
func (s Settings) Audit(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	for _, role := range []Role{RoleCustomer, RoleAdmin} {
		g, err := s.TokenFor(role)
		if err != nil {
			log.Warn("store role has no token", "role", string(role), "error", err.Error())
			continue
		}
		log.Info("store role token", "role", string(role), "tier", string(g.Tier),
			"key_role", KeyRole(g.Token), "downgraded", g.Downgraded)
	}
	if s.SecretKey != "" && KeyRole(s.SecretKey) == "anon" {
		log.Warn("secret key carries the anon role, admin writes will hit row level security")
	}
}
