package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Identity and profile backends.
const (
	BackendLocal    = "local"
	BackendFirebase = "firebase"
)

const (
	envPrefix                  = "MEMBERHUB"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultHTTPTimeout         = 15 * time.Second
	defaultDatabasePath        = "memberhub.db"
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
	defaultCookieName          = "session"
	defaultSessionTTL          = 14 * 24 * time.Hour
	defaultUsersCollection     = "Users"
	defaultSentryEnvironment   = "development"
	defaultAllowedOriginsValue = "*"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	AllowedOrigins   []string

	LogLevel  string
	LogFormat string

	SessionCookieName string
	Backend           string

	DatabasePath       string
	LocalSigningSecret string
	LocalSessionTTL    time.Duration

	FirebaseProjectID       string
	FirebaseCredentialsFile string
	FirebaseUsersCollection string

	SentryDSN         string
	SentryEnvironment string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.read_timeout", defaultHTTPTimeout)
	configViper.SetDefault("http.write_timeout", defaultHTTPTimeout)
	configViper.SetDefault("http.allowed_origins", []string{defaultAllowedOriginsValue})
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("session.cookie_name", defaultCookieName)
	configViper.SetDefault("backend", BackendLocal)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("local.session_ttl", defaultSessionTTL)
	configViper.SetDefault("firebase.users_collection", defaultUsersCollection)
	configViper.SetDefault("sentry.environment", defaultSentryEnvironment)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:             configViper.GetString("http.address"),
		HTTPReadTimeout:         configViper.GetDuration("http.read_timeout"),
		HTTPWriteTimeout:        configViper.GetDuration("http.write_timeout"),
		AllowedOrigins:          splitOrigins(configViper.GetStringSlice("http.allowed_origins")),
		LogLevel:                configViper.GetString("log.level"),
		LogFormat:               strings.ToLower(strings.TrimSpace(configViper.GetString("log.format"))),
		SessionCookieName:       strings.TrimSpace(configViper.GetString("session.cookie_name")),
		Backend:                 strings.ToLower(strings.TrimSpace(configViper.GetString("backend"))),
		DatabasePath:            configViper.GetString("database.path"),
		LocalSigningSecret:      configViper.GetString("local.signing_secret"),
		LocalSessionTTL:         configViper.GetDuration("local.session_ttl"),
		FirebaseProjectID:       strings.TrimSpace(configViper.GetString("firebase.project_id")),
		FirebaseCredentialsFile: strings.TrimSpace(configViper.GetString("firebase.credentials_file")),
		FirebaseUsersCollection: strings.TrimSpace(configViper.GetString("firebase.users_collection")),
		SentryDSN:               strings.TrimSpace(configViper.GetString("sentry.dsn")),
		SentryEnvironment:       configViper.GetString("sentry.environment"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// splitOrigins accepts both list values and the comma separated form used in env vars.
func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	return origins
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if c.SessionCookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.LogFormat)
	}

	switch c.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.LocalSigningSecret) == "" {
			return fmt.Errorf("local.signing_secret is required for the local backend")
		}
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the local backend")
		}
		if c.LocalSessionTTL <= 0 {
			return fmt.Errorf("local.session_ttl must be positive")
		}
	case BackendFirebase:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("firebase.project_id is required for the firebase backend")
		}
		if c.FirebaseUsersCollection == "" {
			return fmt.Errorf("firebase.users_collection is required for the firebase backend")
		}
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendLocal, BackendFirebase, c.Backend)
	}
	return nil
}
