// Package config loads the server configuration.
//
// Sources, lowest precedence first:
//  1. defaults.yaml embedded in the binary
//  2. the YAML file named by TOMBERS_CONFIG, if set
//  3. environment variables prefixed with TOMBERS_ (TOMBERS_DATA_DIR -> data_dir)
package config

import (
	_ "embed"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	EnvPrefix  = "TOMBERS_"
	EnvConfig  = EnvPrefix + "CONFIG"
	DevSecret  = "dev-session-secret"
	maxFileLen = 1 << 20
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Port string `koanf:"port"`
	// Env is "dev" or "prod". In prod the default session secret is refused.
	Env       string `koanf:"env"`
	LogFormat string `koanf:"log_format"`
	LogLevel  string `koanf:"log_level"`

	// DataDir holds users.json and projects.json for the json driver.
	DataDir       string `koanf:"data_dir"`
	StorageDriver string `koanf:"storage_driver"`

	DBHost         string `koanf:"db_host"`
	DBPort         string `koanf:"db_port"`
	DBName         string `koanf:"db_name"`
	DBUser         string `koanf:"db_user"`
	DBPass         string `koanf:"db_pass"`
	DBSSLMode      string `koanf:"db_sslmode"`
	DBMaxOpenConns int    `koanf:"db_max_open_conns"`
	DBMaxIdleConns int    `koanf:"db_max_idle_conns"`

	SessionSecret string        `koanf:"session_secret"`
	SessionStore  string        `koanf:"session_store"`
	SessionTTL    time.Duration `koanf:"session_ttl"`
	CookieSecure  bool          `koanf:"cookie_secure"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// CORSAllowedOrigins is a comma-separated list; empty means same-origin only.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// TrustedProxies is a comma-separated list of IPs or CIDRs. Forwarding
	// headers are only honoured on connections from these addresses.
	TrustedProxies string `koanf:"trusted_proxies"`
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv(EnvConfig))
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	}

	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		if key == EnvConfig {
			return "", nil
		}
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "config file")
	}
	if info.Size() > maxFileLen {
		return nil, errors.Errorf("config file %s is larger than %d bytes", path, maxFileLen)
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	return content, nil
}

// Validate rejects unknown drivers and insecure production settings.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "json", "postgres":
	default:
		return errors.Errorf("storage_driver must be json or postgres, got %q", c.StorageDriver)
	}
	switch c.SessionStore {
	case "memory", "redis":
	default:
		return errors.Errorf("session_store must be memory or redis, got %q", c.SessionStore)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return errors.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	if c.SessionSecret == "" {
		return errors.New("session_secret must not be empty")
	}
	if c.SessionTTL < 0 {
		return errors.New("session_ttl must not be negative")
	}
	if c.StorageDriver == "json" && c.DataDir == "" {
		return errors.New("data_dir is required for the json storage driver")
	}
	if c.IsProd() && c.SessionSecret == DevSecret {
		return errors.New("session_secret must be set in prod")
	}
	if _, err := ParseTrustedProxies(c.TrustedProxies); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsProd() bool { return c.Env == "prod" }

// TLSEnabled reports whether both certificate and key are configured.
func (c *Config) TLSEnabled() bool { return c.TLSCertFile != "" && c.TLSKeyFile != "" }

// UsersPath and ProjectsPath are the JSON store locations under DataDir.
func (c *Config) UsersPath() string    { return filepath.Join(c.DataDir, "users.json") }
func (c *Config) ProjectsPath() string { return filepath.Join(c.DataDir, "projects.json") }

// CORSOrigins splits CORSAllowedOrigins and trims spaces. Empty strings are omitted.
func (c *Config) CORSOrigins() []string {
	return ParseCORSOrigins(c.CORSAllowedOrigins)
}

// ParseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func ParseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TrustedProxyNets parses TrustedProxies. Load has already validated it.
func (c *Config) TrustedProxyNets() []*net.IPNet {
	nets, _ := ParseTrustedProxies(c.TrustedProxies)
	return nets
}

// ParseTrustedProxies parses a comma-separated list of IPs and CIDRs. A bare
// IP becomes a single-host network.
func ParseTrustedProxies(s string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, entry := range ParseCORSOrigins(s) {
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, errors.Errorf("trusted_proxies: invalid address %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, errors.Wrapf(err, "trusted_proxies: invalid network %q", entry)
		}
		out = append(out, n)
	}
	return out, nil
}
