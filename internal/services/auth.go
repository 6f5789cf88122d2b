package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/metrics"
	"github.com/itinventory/inventory/internal/models"
	"github.com/itinventory/inventory/internal/utils"
	"github.com/itinventory/inventory/pkg/logger"
)

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type localUser struct {
	hash string
	role models.Role
}

// AuthService resolves credentials to a role against the directory or the
// local credential table, depending on auth.type.
type AuthService struct {
	authType string
	ldap     *LDAPService
	local    map[string]localUser
	metrics  *metrics.Metrics
}

// NewAuthService prepares the configured identity provider. Plain local
// passwords are hashed here so only bcrypt hashes are kept in memory.
func NewAuthService(cfg *config.Config, m *metrics.Metrics) (*AuthService, error) {
	s := &AuthService{
		authType: cfg.Auth.Type,
		metrics:  m,
	}

	switch cfg.Auth.Type {
	case config.AuthTypeLDAP:
		if cfg.LDAP.Host == "" {
			return nil, errors.New("ldap.host is required when auth.type is ldap")
		}
		s.ldap = NewLDAPService(&cfg.LDAP)

	case config.AuthTypeSetup:
		s.local = make(map[string]localUser, len(cfg.Auth.LocalUsers))
		for _, u := range cfg.Auth.LocalUsers {
			role := models.ParseRole(u.Role)
			if role == models.RoleInvalid {
				return nil, fmt.Errorf("local user %q has invalid role %q", u.Username, u.Role)
			}
			hash := u.Password
			if !utils.IsBcryptHash(hash) {
				var err error
				if hash, err = utils.HashPassword(u.Password); err != nil {
					return nil, fmt.Errorf("hash password for %q: %w", u.Username, err)
				}
			}
			s.local[u.Username] = localUser{hash: hash, role: role}
		}

	default:
		return nil, fmt.Errorf("unsupported auth type: %s", cfg.Auth.Type)
	}

	return s, nil
}

// Login returns the role for the credentials. Every failure is RoleInvalid;
// the cause is logged and never returned.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) models.Role {
	username := strings.TrimSpace(req.Username)

	role, err := s.authenticate(username, req.Password)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Str("auth_type", s.authType).Msg("login failed")
		role = models.RoleInvalid
	} else {
		logger.Info().Str("username", username).Str("role", role.String()).Msg("login succeeded")
	}

	s.metrics.RecordLogin(role.String())
	return role
}

func (s *AuthService) authenticate(username, password string) (models.Role, error) {
	if s.ldap != nil {
		return s.ldap.Authenticate(username, password)
	}

	u, ok := s.local[username]
	if !ok {
		return models.RoleInvalid, fmt.Errorf("unknown user %q", username)
	}
	if !utils.CheckPassword(password, u.hash) {
		return models.RoleInvalid, errors.New("wrong password")
	}
	return u.role, nil
}
