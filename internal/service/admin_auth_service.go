package service

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/anillosguillen/catalog_api/internal/config"
	"github.com/anillosguillen/catalog_api/internal/utils"
)

// AdminAuthService checks the shared admin credential and issues session
// tokens.
type AdminAuthService struct {
	email        string
	passwordHash []byte
	secret       string
	ttl          time.Duration
}

// NewAdminAuthService builds the service from env configuration. A plain
// ADMIN_PASSWORD is hashed once here so that every comparison goes through
// bcrypt.
func NewAdminAuthService(cfg *config.AdminConfig) (*AdminAuthService, error) {
	if cfg.Email == "" || cfg.JWTSecret == "" {
		return nil, &config.UnconfiguredError{Component: "admin", Missing: []string{"ADMIN_EMAIL", "JWT_SECRET"}}
	}

	hash := []byte(cfg.PasswordHash)
	if len(hash) == 0 {
		if cfg.Password == "" {
			return nil, &config.UnconfiguredError{Component: "admin", Missing: []string{"ADMIN_PASSWORD or ADMIN_PASSWORD_HASH"}}
		}
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, errors.New("ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}

	return &AdminAuthService{
		email:        strings.ToLower(strings.TrimSpace(cfg.Email)),
		passwordHash: hash,
		secret:       cfg.JWTSecret,
		ttl:          cfg.SessionTTL,
	}, nil
}

// Login verifies the credential and returns a signed session token and its
// expiry.
func (s *AdminAuthService) Login(email, password string) (string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log.Debug().Str("email", email).Msg("Login attempt")

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	// Always run bcrypt so a wrong email costs the same as a wrong password.
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !emailOK || passErr != nil {
		log.Warn().Str("email", email).Msg("Invalid admin credentials")
		return "", time.Time{}, utils.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.ttl)
	token, err := utils.GenerateJWT(s.secret, s.email, s.ttl)
	if err != nil {
		return "", time.Time{}, err
	}

	log.Info().Str("email", email).Msg("Login successful")
	return token, expiresAt, nil
}

// Validate checks a session token.
func (s *AdminAuthService) Validate(token string) (*utils.AdminClaims, error) {
	claims, err := utils.ValidateJWT(s.secret, token)
	if err != nil {
		return nil, utils.ErrInvalidToken
	}
	if claims.Email != s.email {
		return nil, utils.ErrInvalidToken
	}
	return claims, nil
}

// SessionTTL is the lifetime of issued tokens.
func (s *AdminAuthService) SessionTTL() time.Duration {
	return s.ttl
}
