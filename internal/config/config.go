package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Session   SessionConfig   `yaml:"session"`
	Auth      AuthConfig      `yaml:"auth"`
	LDAP      LDAPConfig      `yaml:"ldap"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	Mode           string   `yaml:"mode"` // debug, release, test
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// SessionConfig keys the navigation cookie. Keys are 32 or 64 bytes; an
// empty block key leaves the cookie signed but not encrypted.
type SessionConfig struct {
	HashKey  string `yaml:"hash_key"`
	BlockKey string `yaml:"block_key"`
	Secure   bool   `yaml:"secure"`
}

const (
	AuthTypeLDAP  = "ldap"
	AuthTypeSetup = "setup"
)

type AuthConfig struct {
	Type       string      `yaml:"type"` // ldap, setup
	LocalUsers []LocalUser `yaml:"local_users"`
}

// LocalUser is one row of the fixed credential table used in setup mode.
// Password holds a bcrypt hash; a plain value is hashed at startup.
type LocalUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"` // admin, user
}

type LDAPConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	UseSSL             bool   `yaml:"use_ssl"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	BindFormat         string `yaml:"bind_format"` // e.g. "LOCAL\\%s" or "%s@example.com"
	UserDir            string `yaml:"user_dir"`    // search base for people and groups
	UserFilter         string `yaml:"user_filter"`
	AdminGroupCN       string `yaml:"admin_group_cn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		// Unmarshal over the defaults so a partial file keeps the rest.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "inventory.db?_foreign_keys=on",
		},
		JWT: JWTConfig{
			Secret:     "inventory-secret-key-change-in-production",
			ExpireHour: 12,
		},
		Session: SessionConfig{
			HashKey: "inventory-navigation-hash-key-change-me",
		},
		Auth: AuthConfig{
			Type: AuthTypeSetup,
			LocalUsers: []LocalUser{
				{Username: "user", Password: "password", Role: "user"},
				{Username: "admin", Password: "admin", Role: "admin"},
			},
		},
		LDAP: LDAPConfig{
			Port:         389,
			BindFormat:   "%s",
			UserFilter:   "(&(objectCategory=person)(objectClass=user)(sAMAccountName=%s))",
			AdminGroupCN: "inventory-admins",
		},
		Log: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			LoginRPS:   1,
			LoginBurst: 5,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if key := os.Getenv("SESSION_HASH_KEY"); key != "" {
		c.Session.HashKey = key
	}
	if key := os.Getenv("SESSION_BLOCK_KEY"); key != "" {
		c.Session.BlockKey = key
	}
	if authType := os.Getenv("AUTH_TYPE"); authType != "" {
		c.Auth.Type = authType
	}
	if host := os.Getenv("LDAP_HOST"); host != "" {
		c.LDAP.Host = host
	}
	if port := os.Getenv("LDAP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.LDAP.Port = p
		}
	}
	if group := os.Getenv("LDAP_ADMIN_GROUP_CN"); group != "" {
		c.LDAP.AdminGroupCN = group
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes c as YAML, creating the parent directory.
func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
