// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds every runtime knob of the service.
type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	// Record store
	StoreBackend    string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Catalog loader
	CatalogURL     string
	CatalogTimeout time.Duration
	CatalogReplace bool

	// Queries
	ReferenceYear int

	// Logging
	LogMode  string
	LogLevel string

	// values present in the environment that could not be parsed
	parseErrs []error
}

// Load reads an optional .env file and then the environment, filling defaults.
func Load() *Config {
	_ = godotenv.Load()

	var perrs []error
	cfg := &Config{
		Port:            getEnv("PORT", "5000"),
		ShutdownTimeout: getEnvDuration(&perrs, "SHUTDOWN_TIMEOUT", 10*time.Second),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"*"}),

		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", BackendMongo)),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DATABASE", "transactionsDB"),
		MongoCollection: getEnv("MONGO_COLLECTION", "transactions"),

		CatalogURL:     getEnv("CATALOG_URL", "https://s3.amazonaws.com/roxiler.com/product_transaction.json"),
		CatalogTimeout: getEnvDuration(&perrs, "CATALOG_TIMEOUT", 30*time.Second),
		CatalogReplace: getEnvBool(&perrs, "CATALOG_REPLACE", false),

		ReferenceYear: getEnvInt(&perrs, "REFERENCE_YEAR", 2023),

		LogMode:  getEnv("LOG_MODE", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	cfg.parseErrs = perrs
	return cfg
}

// Validate reports every configuration problem at once, including environment
// values Load could not parse and replaced with their defaults.
func (c *Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendMongo:
		if u, err := url.Parse(c.MongoURI); err != nil {
			errs = append(errs, fmt.Errorf("invalid mongo URI: %v", err))
		} else if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
			errs = append(errs, fmt.Errorf("invalid mongo URI scheme %q: must be mongodb or mongodb+srv", u.Scheme))
		}
		if c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo database name cannot be empty"))
		}
		if c.MongoCollection == "" {
			errs = append(errs, errors.New("mongo collection name cannot be empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid store backend %q: must be %q or %q", c.StoreBackend, BackendMongo, BackendMemory))
	}

	if u, err := url.Parse(c.CatalogURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid catalog URL %q: must be an absolute http(s) URL", c.CatalogURL))
	}
	if c.CatalogTimeout <= 0 {
		errs = append(errs, errors.New("catalog timeout must be positive"))
	}
	if c.ReferenceYear < 1 {
		errs = append(errs, fmt.Errorf("invalid reference year %d", c.ReferenceYear))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(errs *[]error, key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: must be an integer", key, v))
		return def
	}
	return n
}

func getEnvBool(errs *[]error, key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: must be a boolean", key, v))
		return def
	}
	return b
}

func getEnvDuration(errs *[]error, key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: must be a duration such as 30s", key, v))
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
