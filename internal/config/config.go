package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultShutdown      = 10 * time.Second
	defaultRequestTime   = 30 * time.Second
	defaultSiteName      = "Etalage"
	defaultTimeZone      = "Europe/Brussels"
	defaultLocale        = "nl"
	defaultContentDir    = "content"
	defaultCacheTTL      = 5 * time.Minute
	defaultTemplatesDir  = "templates"
	defaultPublicDir     = "public"
	defaultUploadsDir    = "static/img/uploads"
	defaultLocalesDir    = "locales"
	defaultAnalyticsSink = SinkLog
	defaultBrandWidth    = 160.0
	defaultSecretsFile   = ".secrets.local"

	secretScheme = "secret://"
)

// Analytics sinks.
const (
	SinkLog    = "log"
	SinkPubSub = "pubsub"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Content   ContentConfig
	Paths     PathsConfig
	Session   SessionConfig
	Analytics AnalyticsConfig
	Carousel  CarouselConfig
	Secrets   SecretsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	DevMode         bool
	LogLevel        string
}

// SiteConfig describes the store.
type SiteConfig struct {
	Name     string
	BaseURL  string
	TimeZone string
	Location *time.Location
	Locale   string
	Locales  []string
	Phone    string
	Address  string
}

// ContentConfig selects where CMS documents come from. The remote base URL
// and the bucket are consulted before the local directory.
type ContentConfig struct {
	Dir       string
	BaseURL   string
	GCSBucket string
	GCSPrefix string
	CacheTTL  time.Duration
}

// PathsConfig locates templates and static files.
type PathsConfig struct {
	Templates string
	Public    string
	Uploads   string
	Locales   string
}

// SessionConfig holds cookie signing keys. Empty keys are generated at
// startup, which invalidates cookies on every restart. Keys may be given as
// secret:// references, resolved through Secret Manager at startup.
type SessionConfig struct {
	HashKey  string
	BlockKey string
	Secure   bool
}

// SecretsConfig locates secret:// references.
type SecretsConfig struct {
	ProjectID    string
	FallbackFile string
}

// AnalyticsConfig selects where analytics events go.
type AnalyticsConfig struct {
	Sink          string
	ProjectID     string
	Topic         string
	UmamiWebsite  string
	UmamiScript   string
	PubSubEmuHost string
}

// CarouselConfig tunes server-side carousel geometry.
type CarouselConfig struct {
	ItemWidth float64
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load resolves configuration from defaults, the .env file, the process
// environment and explicit overrides, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	port := stringWithDefault(lookup, "PORT", defaultPort)
	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "ETALAGE_SERVER_PORT", port),
			ReadTimeout:     durationWithDefault(lookup, "ETALAGE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "ETALAGE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "ETALAGE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			RequestTimeout:  durationWithDefault(lookup, "ETALAGE_SERVER_REQUEST_TIMEOUT", defaultRequestTime),
			ShutdownTimeout: durationWithDefault(lookup, "ETALAGE_SERVER_SHUTDOWN_TIMEOUT", defaultShutdown),
			DevMode:         boolWithDefault(lookup, "ETALAGE_DEV", false),
			LogLevel:        stringWithDefault(lookup, "ETALAGE_LOG_LEVEL", stringWithDefault(lookup, "LOG_LEVEL", "info")),
		},
		Site: SiteConfig{
			Name:     stringWithDefault(lookup, "ETALAGE_SITE_NAME", defaultSiteName),
			BaseURL:  strings.TrimRight(stringWithDefault(lookup, "ETALAGE_SITE_BASE_URL", ""), "/"),
			TimeZone: stringWithDefault(lookup, "ETALAGE_SITE_TIMEZONE", defaultTimeZone),
			Locale:   strings.ToLower(stringWithDefault(lookup, "ETALAGE_SITE_LOCALE", defaultLocale)),
			Locales:  csvWithDefault(lookup, "ETALAGE_SITE_LOCALES"),
			Phone:    stringWithDefault(lookup, "ETALAGE_SITE_PHONE", ""),
			Address:  stringWithDefault(lookup, "ETALAGE_SITE_ADDRESS", ""),
		},
		Content: ContentConfig{
			Dir:       stringWithDefault(lookup, "ETALAGE_CONTENT_DIR", defaultContentDir),
			BaseURL:   stringWithDefault(lookup, "ETALAGE_CONTENT_BASE_URL", ""),
			GCSBucket: stringWithDefault(lookup, "ETALAGE_CONTENT_GCS_BUCKET", ""),
			GCSPrefix: stringWithDefault(lookup, "ETALAGE_CONTENT_GCS_PREFIX", ""),
			CacheTTL:  durationWithDefault(lookup, "ETALAGE_CONTENT_CACHE_TTL", defaultCacheTTL),
		},
		Paths: PathsConfig{
			Templates: stringWithDefault(lookup, "ETALAGE_TEMPLATES_DIR", defaultTemplatesDir),
			Public:    stringWithDefault(lookup, "ETALAGE_PUBLIC_DIR", defaultPublicDir),
			Uploads:   stringWithDefault(lookup, "ETALAGE_UPLOADS_DIR", defaultUploadsDir),
			Locales:   stringWithDefault(lookup, "ETALAGE_LOCALES_DIR", defaultLocalesDir),
		},
		Session: SessionConfig{
			HashKey:  stringWithDefault(lookup, "ETALAGE_SESSION_HASH_KEY", ""),
			BlockKey: stringWithDefault(lookup, "ETALAGE_SESSION_BLOCK_KEY", ""),
			Secure:   boolWithDefault(lookup, "ETALAGE_SESSION_SECURE", false),
		},
		Analytics: AnalyticsConfig{
			Sink:          strings.ToLower(stringWithDefault(lookup, "ETALAGE_ANALYTICS_SINK", defaultAnalyticsSink)),
			ProjectID:     stringWithDefault(lookup, "ETALAGE_ANALYTICS_PROJECT_ID", ""),
			Topic:         stringWithDefault(lookup, "ETALAGE_ANALYTICS_TOPIC", ""),
			UmamiWebsite:  stringWithDefault(lookup, "ETALAGE_UMAMI_WEBSITE_ID", ""),
			UmamiScript:   stringWithDefault(lookup, "ETALAGE_UMAMI_SCRIPT_URL", "https://cloud.umami.is/script.js"),
			PubSubEmuHost: stringWithDefault(lookup, "PUBSUB_EMULATOR_HOST", ""),
		},
		Carousel: CarouselConfig{
			ItemWidth: floatWithDefault(lookup, "ETALAGE_CAROUSEL_ITEM_WIDTH", defaultBrandWidth),
		},
		Secrets: SecretsConfig{
			ProjectID:    stringWithDefault(lookup, "ETALAGE_SECRETS_PROJECT_ID", ""),
			FallbackFile: stringWithDefault(lookup, "ETALAGE_SECRETS_FALLBACK_FILE", defaultSecretsFile),
		},
	}

	if len(cfg.Site.Locales) == 0 {
		cfg.Site.Locales = []string{cfg.Site.Locale}
		if cfg.Site.Locale != "en" {
			cfg.Site.Locales = append(cfg.Site.Locales, "en")
		}
	}

	if loc, err := time.LoadLocation(cfg.Site.TimeZone); err == nil {
		cfg.Site.Location = loc
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Site.Location == nil {
		missing = append(missing, "Site.TimeZone")
	}
	if cfg.Content.CacheTTL < 0 {
		missing = append(missing, "Content.CacheTTL")
	}
	if cfg.Session.HashKey != "" && !IsSecretRef(cfg.Session.HashKey) && len(cfg.Session.HashKey) < 32 {
		missing = append(missing, "Session.HashKey")
	}
	if !IsSecretRef(cfg.Session.BlockKey) && !ValidBlockKey(cfg.Session.BlockKey) {
		missing = append(missing, "Session.BlockKey")
	}
	switch cfg.Analytics.Sink {
	case SinkLog:
	case SinkPubSub:
		if cfg.Analytics.ProjectID == "" {
			missing = append(missing, "Analytics.ProjectID")
		}
		if cfg.Analytics.Topic == "" {
			missing = append(missing, "Analytics.Topic")
		}
	default:
		missing = append(missing, "Analytics.Sink")
	}
	if cfg.Carousel.ItemWidth <= 0 {
		missing = append(missing, "Carousel.ItemWidth")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// IsSecretRef reports whether value points at Secret Manager instead of
// holding the value itself.
func IsSecretRef(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), secretScheme)
}

// ValidBlockKey reports whether key is empty or a valid AES key length.
func ValidBlockKey(key string) bool {
	switch len(key) {
	case 0, 16, 24, 32:
		return true
	default:
		return false
	}
}
