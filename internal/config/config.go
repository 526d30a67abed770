// Package config handles the XDG configuration directory, its files, and the
// layered settings read from config.yaml, .env files and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasksync"

	// OAuthClientFile is the OAuth client credentials filename (googletasks backend).
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored credential filename.
	TokenFile = "token.json"

	// ConfigFile is the settings filename.
	ConfigFile = "config.yaml"

	// EnvFile is the dotenv filename looked up in the config dir and the working dir.
	EnvFile = ".env"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TASKSYNC"
)

// Backends.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:5286/api"
	DefaultBackend = BackendREST
	DefaultTimeout = 10 * time.Second
)

// Setting keys, as written in config.yaml. The environment form is
// TASKSYNC_<KEY in upper case>.
const (
	keyAPIURL  = "api_url"
	keyBackend = "backend"
	keyTimeout = "timeout"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the task gateway base URL.
	APIURL string

	// Backend selects the gateway implementation: "rest" or "googletasks".
	Backend string

	// Timeout bounds each gateway call.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config for the default or specified config directory and
// loads its settings.
// If configDir is empty, uses XDG_CONFIG_HOME/tasksync or $HOME/.config/tasksync.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads settings. Later sources win:
// defaults, config.yaml, .env in the working dir, .env in the config dir,
// then TASKSYNC_* environment variables.
func (c *Config) Load() error {
	v := viper.New()
	v.SetDefault(keyAPIURL, DefaultAPIURL)
	v.SetDefault(keyBackend, DefaultBackend)
	v.SetDefault(keyTimeout, DefaultTimeout.String())

	v.SetConfigFile(c.ConfigPath())
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	for _, path := range []string{EnvFile, c.EnvPath()} {
		if err := applyDotenv(v, path); err != nil {
			return err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	c.APIURL = strings.TrimSpace(v.GetString(keyAPIURL))
	c.Backend = strings.ToLower(strings.TrimSpace(v.GetString(keyBackend)))

	timeout, err := parseTimeout(v.GetString(keyTimeout))
	if err != nil {
		return err
	}
	c.Timeout = timeout
	return c.Validate()
}

// Validate checks settings that may also have been overridden by flags.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Backend == BackendREST && c.APIURL == "" {
		return errors.New("api_url must not be empty")
	}
	return nil
}

// applyDotenv copies TASKSYNC_* entries of a dotenv file into v. The process
// environment is left untouched and still takes precedence.
func applyDotenv(v *viper.Viper, path string) error {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid %s: %w", path, err)
	}
	prefix := EnvPrefix + "_"
	for name, value := range values {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if _, set := os.LookupEnv(name); set {
			continue
		}
		v.Set(strings.ToLower(strings.TrimPrefix(name, prefix)), value)
	}
	return nil
}

// parseTimeout accepts a Go duration ("15s") or a number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("timeout must be positive: %s", s)
		}
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("invalid timeout: %s", s)
	}
	return time.Duration(secs) * time.Second, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// EnvPath returns the path to the config dir's .env file.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored credential.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file. A missing file is not an error.
func (c *Config) RemoveToken() error {
	if err := os.Remove(c.TokenPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

const defaultFile = `# tasksync settings. Environment variables TASKSYNC_API_URL,
# TASKSYNC_BACKEND and TASKSYNC_TIMEOUT override these values.

# Base URL of the task gateway.
api_url: %s

# Gateway implementation: rest or googletasks.
backend: %s

# Timeout for a single gateway call.
timeout: %s
`

// WriteDefault writes a commented config.yaml with the default settings.
// An existing file is left alone and reported with fs.ErrExist.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, defaultFile, DefaultAPIURL, DefaultBackend, DefaultTimeout); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
