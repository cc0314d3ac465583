// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"

	"github.com/ericfisherdev/tokenvault/internal/domain/model"
)

// Secret backends.
const (
	BackendKeyring = "keyring"
	BackendSQLite  = "sqlite"
	BackendMemory  = "memory"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Backend selects where encrypted secrets live.
	Backend string
	// KeyringService namespaces every entry in the backend.
	KeyringService string
	// DBPath is the sqlite file used by the sqlite backend.
	DBPath string
	// Cipher is the AEAD algorithm for new records.
	Cipher string

	LogLevel string
	Env      string

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RateLimitWait    time.Duration

	HTTPTimeout       time.Duration
	HTTPRatePerSecond float64

	MetricsEnabled   bool
	MetricsNamespace string

	Spotify OAuthApp
	YouTube OAuthApp
}

// OAuthApp is an optional OAuth app registration from the environment.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Credentials returns the registration, or nil when no client ID is set.
func (a OAuthApp) Credentials() *model.Credentials {
	if a.ClientID == "" {
		return nil
	}
	return &model.Credentials{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURI:  a.RedirectURI,
	}
}

// SpotifyCredentials returns the Spotify app registration, if configured.
func (c *Config) SpotifyCredentials() *model.Credentials { return c.Spotify.Credentials() }

// YouTubeCredentials returns the YouTube app registration, if configured.
func (c *Config) YouTubeCredentials() *model.Credentials { return c.YouTube.Credentials() }

// CredentialsFor returns the app registration for svc, if configured.
func (c *Config) CredentialsFor(svc model.ServiceName) *model.Credentials {
	switch svc {
	case model.ServiceSpotify:
		return c.SpotifyCredentials()
	case model.ServiceYouTube:
		return c.YouTubeCredentials()
	default:
		return nil
	}
}

// Load reads configuration from the environment, after loading the nearest
// .env file if one exists, and returns a validated Config. OAuth app
// registrations are optional; commands that need one report its absence.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		Backend:        strings.ToLower(env.GetString("TOKENVAULT_BACKEND", BackendKeyring)),
		KeyringService: env.GetString("TOKENVAULT_SERVICE_NAME", model.DefaultKeyringService),
		DBPath:         env.GetString("TOKENVAULT_DB_PATH", "tokenvault.db"),
		Cipher:         strings.ToLower(env.GetString("TOKENVAULT_CIPHER", model.AlgorithmAESGCM)),

		LogLevel: env.GetString("TOKENVAULT_LOG_LEVEL", "info"),
		Env:      env.GetString("TOKENVAULT_ENV", "production"),

		RetryMaxAttempts: env.GetInt("TOKENVAULT_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   env.GetDuration("TOKENVAULT_RETRY_BASE_DELAY_MS", 1000, time.Millisecond),
		RateLimitWait:    env.GetDuration("TOKENVAULT_RATE_LIMIT_WAIT_SECONDS", 60, time.Second),

		HTTPTimeout:       env.GetDuration("TOKENVAULT_HTTP_TIMEOUT_SECONDS", 30, time.Second),
		HTTPRatePerSecond: env.GetFloat64("TOKENVAULT_HTTP_RATE_PER_SECOND", 5),

		MetricsEnabled:   env.GetBool("TOKENVAULT_METRICS_ENABLED", false),
		MetricsNamespace: env.GetString("TOKENVAULT_METRICS_NAMESPACE", "tokenvault"),

		Spotify: OAuthApp{
			ClientID:     env.GetString("SPOTIFY_CLIENT_ID", ""),
			ClientSecret: env.GetString("SPOTIFY_CLIENT_SECRET", ""),
			RedirectURI:  env.GetString("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8888/callback"),
		},
		YouTube: OAuthApp{
			ClientID:     env.GetString("YOUTUBE_CLIENT_ID", ""),
			ClientSecret: env.GetString("YOUTUBE_CLIENT_SECRET", ""),
			RedirectURI:  env.GetString("YOUTUBE_REDIRECT_URI", "http://127.0.0.1:8888/callback"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendKeyring, BackendSQLite, BackendMemory)),
		validation.Field(&c.KeyringService, validation.Required),
		validation.Field(&c.DBPath, validation.When(c.Backend == BackendSQLite, validation.Required)),
		validation.Field(&c.Cipher, validation.In(model.AlgorithmAESGCM, model.AlgorithmChaCha20Poly1305)),
		validation.Field(&c.RetryMaxAttempts, validation.Required, validation.Min(1)),
		validation.Field(&c.RetryBaseDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimitWait, validation.Min(time.Duration(0))),
		validation.Field(&c.HTTPTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.HTTPRatePerSecond, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.MetricsNamespace, validation.When(c.MetricsEnabled, validation.Required)),
		validation.Field(&c.Spotify),
		validation.Field(&c.YouTube),
	)
}

// Validate requires a complete registration once a client ID is set.
func (a OAuthApp) Validate() error {
	if a.ClientID == "" {
		return nil
	}
	if err := a.Credentials().Validate(); err != nil {
		return errors.Join(errors.New("incomplete OAuth app registration"), err)
	}
	return nil
}

// loadDotEnv loads the nearest .env file walking up from the working
// directory. Variables already set in the environment win.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	for dir := cwd; ; {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
