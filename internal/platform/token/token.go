// Package token issues and verifies signed player session tokens.
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/emberfall/worldforge/internal/errors"
)

const signingMethod = "HS256"

// tokenEnv holds raw env values before post-parse validation.
type tokenEnv struct {
	Issuer   string `env:"WORLDFORGE_TOKEN_ISSUER" envDefault:"worldforge"`
	Audience string `env:"WORLDFORGE_TOKEN_AUDIENCE" envDefault:"worldforge-web"`
	Secret   string `env:"WORLDFORGE_TOKEN_SECRET"`
	TTL      string `env:"WORLDFORGE_TOKEN_TTL" envDefault:"24h"`
}

// Config defines how player tokens are signed and verified.
type Config struct {
	Issuer   string
	Audience string
	Secret   []byte
	TTL      time.Duration
	Now      func() time.Time
}

// Claims captures a validated player token.
type Claims struct {
	PlayerID  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// playerClaims is the internal claims type used for JWT parsing.
type playerClaims struct {
	jwt.RegisteredClaims
	PlayerID string `json:"player_id"`
}

// LoadConfigFromEnv reads token configuration from the environment.
func LoadConfigFromEnv(now func() time.Time) (Config, error) {
	var raw tokenEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse token env: %w", err)
	}
	secret := strings.TrimSpace(raw.Secret)
	if secret == "" {
		return Config{}, fmt.Errorf("WORLDFORGE_TOKEN_SECRET is required")
	}
	ttl, err := time.ParseDuration(strings.TrimSpace(raw.TTL))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("WORLDFORGE_TOKEN_TTL must be a positive duration")
	}
	if now == nil {
		now = time.Now
	}
	return Config{
		Issuer:   strings.TrimSpace(raw.Issuer),
		Audience: strings.TrimSpace(raw.Audience),
		Secret:   []byte(secret),
		TTL:      ttl,
		Now:      now,
	}, nil
}

// Issue signs a token for one player.
func Issue(playerID string, cfg Config) (string, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return "", fmt.Errorf("player id is required")
	}
	if len(cfg.Secret) == 0 {
		return "", fmt.Errorf("token signer is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	now := cfg.Now().UTC()

	claims := playerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
		PlayerID: playerID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign player token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a player token.
func Verify(value string, cfg Config) (Claims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "player token is required")
	}
	if len(cfg.Secret) == 0 {
		return Claims{}, fmt.Errorf("token verifier is not configured")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	var parsed playerClaims
	_, err := jwt.ParseWithClaims(value, &parsed, func(token *jwt.Token) (any, error) {
		return cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithTimeFunc(cfg.Now),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthenticated, "invalid player token", err)
	}
	if strings.TrimSpace(parsed.PlayerID) == "" {
		return Claims{}, apperrors.New(apperrors.CodeUnauthenticated, "player token has no player id")
	}

	claims := Claims{PlayerID: parsed.PlayerID}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}
