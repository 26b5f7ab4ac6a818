package configuration

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/iota-catalog/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the given env files. Relative names are looked up in the
// working directory first and then in the nearest directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if path, ok := resolveEnvFile(file); ok {
			existingFiles = append(existingFiles, path)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

func resolveEnvFile(file string) (string, bool) {
	if fileExists(file) {
		return file, true
	}
	if filepath.IsAbs(file) {
		return "", false
	}
	root, ok := moduleRoot()
	if !ok {
		return "", false
	}
	candidate := filepath.Join(root, file)
	if fileExists(candidate) {
		return candidate, true
	}
	return "", false
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"multitenant_saas"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type CacheOptions struct {
	Backend      string `env:"CACHE_BACKEND" envDefault:"redis"` // redis or memory
	RedisURL     string `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/1"`
	IgnoreErrors bool   `env:"CACHE_IGNORE_ERRORS" envDefault:"true"`
}

type CatalogOptions struct {
	ListTTL   time.Duration `env:"CATALOG_LIST_TTL" envDefault:"120s"`
	DetailTTL time.Duration `env:"CATALOG_DETAIL_TTL" envDefault:"120s"`
	SearchTTL time.Duration `env:"CATALOG_SEARCH_TTL" envDefault:"60s"`
}

type ElasticsearchOptions struct {
	URL          string        `env:"ELASTICSEARCH_URL" envDefault:"http://127.0.0.1:9200"`
	IndexPrefix  string        `env:"ELASTICSEARCH_INDEX_PREFIX" envDefault:"saas"`
	WriteRefresh string        `env:"ELASTICSEARCH_WRITE_REFRESH" envDefault:""`
	Timeout      time.Duration `env:"ELASTICSEARCH_TIMEOUT" envDefault:"5s"`
}

type NotificationOptions struct {
	Layer    string `env:"CHANNEL_LAYER" envDefault:"redis"` // redis, local or none
	RedisURL string `env:"CHANNEL_REDIS_URL" envDefault:"redis://127.0.0.1:6379/2"`
	Prefix   string `env:"CHANNEL_PREFIX" envDefault:"channels:"`
}

type TenancyOptions struct {
	PublicSchema string        `env:"PUBLIC_SCHEMA" envDefault:"public"`
	CacheTTL     time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
}

type AuthOptions struct {
	EnableBasicAuth bool   `env:"ENABLE_BASIC_AUTH" envDefault:"false"`
	UserHeader      string `env:"AUTH_USER_HEADER" envDefault:"X-Authenticated-User"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type Configuration struct {
	Database      DatabaseOptions
	Cache         CacheOptions
	Catalog       CatalogOptions
	Elasticsearch ElasticsearchOptions
	Notifications NotificationOptions
	Tenancy       TenancyOptions
	Auth          AuthOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions

	ServerPort       int    `env:"PORT" envDefault:"8000"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath          string `env:"LOG_PATH" envDefault:""`
	CORSOrigins      string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"`
	// The service looks for this header in the request, if it's not present, it will generate a random uuidv4
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// The service looks for this header in the request, if it's not present, it will use request.RemoteAddr
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) AllowedOrigins() []string {
	out := make([]string, 0)
	for _, part := range strings.Split(c.CORSOrigins, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func Use() *Configuration {
	return singleton()
}

// Load builds a Configuration from the given env files and the process
// environment. Use() should be preferred outside of tools and tests.
func Load(envFiles []string) (*Configuration, error) {
	c := &Configuration{}
	if err := c.load(envFiles); err != nil {
		c.Unload()
		return nil, err
	}
	return c, nil
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

func (c *Configuration) validate() error {
	var errs []error

	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("invalid CACHE_BACKEND=%q (expected redis|memory)", c.Cache.Backend))
	}

	c.Elasticsearch.WriteRefresh = strings.ToLower(strings.TrimSpace(c.Elasticsearch.WriteRefresh))
	switch c.Elasticsearch.WriteRefresh {
	case "", "true", "false", "wait_for":
	default:
		errs = append(errs, fmt.Errorf("invalid ELASTICSEARCH_WRITE_REFRESH=%q (expected empty|true|false|wait_for)", c.Elasticsearch.WriteRefresh))
	}

	c.Notifications.Layer = strings.ToLower(strings.TrimSpace(c.Notifications.Layer))
	switch c.Notifications.Layer {
	case "redis", "local", "none":
	default:
		errs = append(errs, fmt.Errorf("invalid CHANNEL_LAYER=%q (expected redis|local|none)", c.Notifications.Layer))
	}

	if strings.TrimSpace(c.Tenancy.PublicSchema) == "" {
		c.Tenancy.PublicSchema = "public"
	}
	for name, ttl := range map[string]time.Duration{
		"CATALOG_LIST_TTL":   c.Catalog.ListTTL,
		"CATALOG_DETAIL_TTL": c.Catalog.DetailTTL,
		"CATALOG_SEARCH_TTL": c.Catalog.SearchTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, ttl))
		}
	}
	return errors.Join(errs...)
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
