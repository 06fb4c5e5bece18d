package services

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/yungbote/licensing-crm-backend/internal/pkg/errors"
	"github.com/yungbote/licensing-crm-backend/internal/pkg/logger"
)

const serviceTokenIssuer = "licensing-crm"

// TokenAuthenticator checks bearer tokens on machine-to-machine endpoints
// (MCP and webhooks). It accepts the shared static token and, when a signing
// secret is configured, HS256 service tokens minted by Mint.
type TokenAuthenticator interface {
	Authenticate(bearer string) (subject string, err error)
	Mint(subject string, ttl time.Duration) (string, error)
	Enabled() bool
}

type tokenAuthenticator struct {
	log        *logger.Logger
	static     []byte
	jwtSecret  []byte
	now        func() time.Time
	allowEmpty bool
}

type AuthConfig struct {
	StaticToken string
	JWTSecret   string
	// AllowUnauthenticated opens the endpoints when no credential is
	// configured at all. Intended for local development only.
	AllowUnauthenticated bool
}

func NewTokenAuthenticator(log *logger.Logger, cfg AuthConfig) TokenAuthenticator {
	a := &tokenAuthenticator{
		log:        log.With("service", "TokenAuthenticator"),
		static:     []byte(strings.TrimSpace(cfg.StaticToken)),
		jwtSecret:  []byte(strings.TrimSpace(cfg.JWTSecret)),
		now:        time.Now,
		allowEmpty: cfg.AllowUnauthenticated,
	}
	if !a.Enabled() {
		a.log.Warn("no MCP credentials configured; bearer-protected endpoints will reject every request")
	}
	return a
}

func (a *tokenAuthenticator) Enabled() bool {
	return len(a.static) > 0 || len(a.jwtSecret) > 0
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func (a *tokenAuthenticator) Authenticate(bearer string) (string, error) {
	if !a.Enabled() {
		if a.allowEmpty {
			return "anonymous", nil
		}
		return "", pkgerrors.ErrUnauthorized
	}
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return "", pkgerrors.ErrUnauthorized
	}
	if len(a.static) > 0 && subtle.ConstantTimeCompare([]byte(bearer), a.static) == 1 {
		return "static", nil
	}
	if len(a.jwtSecret) == 0 || strings.Count(bearer, ".") != 2 {
		return "", pkgerrors.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(bearer, claims, func(t *jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(serviceTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !tok.Valid {
		return "", pkgerrors.ErrUnauthorized
	}
	return claims.Subject, nil
}

func (a *tokenAuthenticator) Mint(subject string, ttl time.Duration) (string, error) {
	if len(a.jwtSecret) == 0 {
		return "", fmt.Errorf("mint service token: %w", pkgerrors.ErrNotConfigured)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("mint service token: subject required: %w", pkgerrors.ErrInvalidArgument)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := a.now()
	claims := jwt.RegisteredClaims{
		Issuer:    serviceTokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
}
