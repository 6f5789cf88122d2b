package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/models"
)

const (
	defaultUserFilter  = "(&(objectCategory=person)(sAMAccountName=%s))"
	defaultGroupFilter = "(&(objectCategory=group)(cn=%s))"
)

// LDAPDialer opens a connection to the directory.
type LDAPDialer func(cfg *config.LDAPConfig) (ldap.Client, error)

type LDAPService struct {
	config *config.LDAPConfig
	dial   LDAPDialer
}

func NewLDAPService(cfg *config.LDAPConfig) *LDAPService {
	return &LDAPService{config: cfg, dial: dialLDAP}
}

func dialLDAP(cfg *config.LDAPConfig) (ldap.Client, error) {
	scheme := "ldap"
	if cfg.UseSSL {
		scheme = "ldaps"
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port)
	return ldap.DialURL(url, ldap.DialWithTLSConfig(&tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}))
}

// Authenticate binds as the user, then resolves the role from membership of
// the admin group.
func (s *LDAPService) Authenticate(username, password string) (models.Role, error) {
	// An empty password would be an unauthenticated bind, which succeeds.
	if username == "" || password == "" {
		return models.RoleInvalid, errors.New("username and password are required")
	}

	conn, err := s.dial(s.config)
	if err != nil {
		return models.RoleInvalid, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}
	defer conn.Close()

	bindFormat := s.config.BindFormat
	if bindFormat == "" {
		bindFormat = "%s"
	}
	if err := conn.Bind(fmt.Sprintf(bindFormat, username), password); err != nil {
		return models.RoleInvalid, fmt.Errorf("bind failed: %w", err)
	}

	userFilter := s.config.UserFilter
	if userFilter == "" {
		userFilter = defaultUserFilter
	}
	result, err := conn.Search(ldap.NewSearchRequest(
		s.config.UserDir,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf(userFilter, ldap.EscapeFilter(username)),
		[]string{"dn", "cn"},
		nil,
	))
	if err != nil {
		return models.RoleInvalid, fmt.Errorf("LDAP user search failed: %w", err)
	}
	if len(result.Entries) != 1 {
		return models.RoleInvalid, fmt.Errorf("expected one directory entry for %q, found %d", username, len(result.Entries))
	}
	user := result.Entries[0]

	if s.config.AdminGroupCN == "" {
		return models.RoleUser, nil
	}

	groups, err := conn.Search(ldap.NewSearchRequest(
		s.config.UserDir,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf(defaultGroupFilter, ldap.EscapeFilter(s.config.AdminGroupCN)),
		[]string{"member"},
		nil,
	))
	if err != nil {
		return models.RoleInvalid, fmt.Errorf("LDAP group search failed: %w", err)
	}

	for _, group := range groups.Entries {
		if isGroupMember(group.GetAttributeValues("member"), user.DN, user.GetAttributeValue("cn")) {
			return models.RoleAdmin, nil
		}
	}
	return models.RoleUser, nil
}

// isGroupMember matches a member list by DN, or by the leading CN of each
// member DN when the directory returns DNs in another form.
func isGroupMember(members []string, userDN, cn string) bool {
	for _, member := range members {
		if userDN != "" && strings.EqualFold(member, userDN) {
			return true
		}
		if cn == "" {
			continue
		}
		dn, err := ldap.ParseDN(member)
		if err != nil || len(dn.RDNs) == 0 {
			continue
		}
		for _, attr := range dn.RDNs[0].Attributes {
			if strings.EqualFold(attr.Type, "cn") && strings.EqualFold(attr.Value, cn) {
				return true
			}
		}
	}
	return false
}
