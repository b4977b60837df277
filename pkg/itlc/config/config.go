package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultKeycloakURL  = "https://sts.itlusions.com"
	DefaultRealm        = "itlusions"
	DefaultClientID     = "kubernetes-oidc"
	DefaultCallbackPort = 8765
	DefaultCallbackPath = "/callback"
)

// Config carries every tunable of the login flow. One value is threaded
// through all components so that overriding the issuer or callback port
// cannot diverge between the request builder, the listener, and the
// exchanger.
type Config struct {
	KeycloakURL string `yaml:"keycloak-url"`
	Realm       string `yaml:"realm"`
	// IssuerURL overrides the KeycloakURL/Realm derived issuer when set.
	IssuerURL string   `yaml:"issuer-url,omitempty"`
	ClientID  string   `yaml:"client-id"`
	Scopes    []string `yaml:"scopes,omitempty"`

	CallbackPort int `yaml:"callback-port,omitempty"`

	LoginTimeout  string `yaml:"login-timeout,omitempty"`
	HTTPTimeout   string `yaml:"http-timeout,omitempty"`
	RefreshWindow string `yaml:"refresh-window,omitempty"`

	CacheDir     string `yaml:"cache-dir,omitempty"`
	TokenStorage string `yaml:"token-storage,omitempty"`

	CAFile          string `yaml:"ca-file,omitempty"`
	InsecureSkipTLS bool   `yaml:"insecure-skip-tls-verify,omitempty"`
}

func Default() Config {
	return Config{
		KeycloakURL:   DefaultKeycloakURL,
		Realm:         DefaultRealm,
		ClientID:      DefaultClientID,
		Scopes:        []string{"openid", "profile", "email", "groups"},
		CallbackPort:  DefaultCallbackPort,
		LoginTimeout:  "5m",
		HTTPTimeout:   "10s",
		RefreshWindow: "5m",
		TokenStorage:  "file",
	}
}

// Load reads the YAML config at path, falling back to defaults when the
// file does not exist. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ITLC_KEYCLOAK_URL"); v != "" {
		c.KeycloakURL = v
	}
	if v := os.Getenv("ITLC_REALM"); v != "" {
		c.Realm = v
	}
	if v := os.Getenv("ITLC_ISSUER"); v != "" {
		c.IssuerURL = v
	}
	if v := os.Getenv("ITLC_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("ITLC_SCOPES"); v != "" {
		c.Scopes = strings.Split(v, ",")
	}
	if v := os.Getenv("ITLC_CALLBACK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.CallbackPort = port
		}
	}
	if v := os.Getenv("ITLC_CACHE_DIR"); v != "" {
		c.CacheDir = v
	}
	if v := os.Getenv("ITLC_TOKEN_STORAGE"); v != "" {
		c.TokenStorage = v
	}
}

func (c *Config) Validate() error {
	if c.Issuer() == "" {
		return errors.New("issuer is not configured: set keycloak-url and realm, or issuer-url")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client-id is required")
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("callback-port out of range: %d", c.CallbackPort)
	}
	switch c.TokenStorage {
	case "", "file", "keyring":
	default:
		return fmt.Errorf("unsupported token-storage: %s", c.TokenStorage)
	}
	return nil
}

// Issuer returns the explicit issuer URL, or the Keycloak realm issuer
// in the {base}/realms/{realm} shape.
func (c Config) Issuer() string {
	if c.IssuerURL != "" {
		return strings.TrimRight(c.IssuerURL, "/")
	}
	if c.KeycloakURL == "" || c.Realm == "" {
		return ""
	}
	return strings.TrimRight(c.KeycloakURL, "/") + "/realms/" + c.Realm
}

// CallbackAddr is the listen address for the one-shot callback endpoint.
func (c Config) CallbackAddr() string {
	return fmt.Sprintf("localhost:%d", c.CallbackPort)
}

// RedirectURI must match the redirect registered with the identity
// provider exactly.
func (c Config) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d%s", c.CallbackPort, DefaultCallbackPath)
}

func (c Config) LoginTimeoutDuration() time.Duration {
	return c.duration(c.LoginTimeout, 5*time.Minute)
}

func (c Config) HTTPTimeoutDuration() time.Duration {
	return c.duration(c.HTTPTimeout, 10*time.Second)
}

func (c Config) RefreshWindowDuration() time.Duration {
	return c.duration(c.RefreshWindow, 5*time.Minute)
}

func (c Config) duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
