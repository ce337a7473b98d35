package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Catalog   CatalogConfig
	Database  DatabaseConfig
	MariaDB   MariaDBConfig
	Extractor ExtractorConfig `yaml:"extractor"`
	Matching  MatchingConfig  `yaml:"matching"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Web       WebConfig       `yaml:"web"`
}

type CatalogConfig struct {
	Backend string // "postgres" or "mariadb"; empty picks whichever connection string is set
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN string // e.g. finder:finder@tcp(mariadb:3306)/finder
}

type ExtractorConfig struct {
	MaxFeatures   int     `yaml:"max_features"`
	Levels        int     `yaml:"levels"`
	ScaleFactor   float64 `yaml:"scale_factor"`
	FastThreshold int     `yaml:"fast_threshold"`
	EdgeThreshold int     `yaml:"edge_threshold"`
	MaxImageSize  int     `yaml:"max_image_size"`
}

type MatchingConfig struct {
	Mode           string  `yaml:"mode"` // threshold or ratio
	MaxDistance    int     `yaml:"max_distance"`
	Ratio          float64 `yaml:"ratio"`
	MinGoodMatches int     `yaml:"min_good_matches"`
	Workers        int     `yaml:"workers"` // parallel scan workers, 1 disables parallelism
}

type IngestConfig struct {
	MaxLocationAge       time.Duration `yaml:"max_location_age"`
	MaxDescriptionLength int           `yaml:"max_description_length"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CatalogBackend returns the configured backend name. Without an explicit
// CATALOG_BACKEND, PostgreSQL wins over MariaDB when both are configured.
func (c *Config) CatalogBackend() string {
	if c.Catalog.Backend != "" {
		return c.Catalog.Backend
	}
	if c.Database.URL != "" {
		return "postgres"
	}
	if c.MariaDB.DSN != "" {
		return "mariadb"
	}
	return ""
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegativeInt is envInt that also accepts zero.
func envNonNegativeInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable as a time.Duration (e.g. "5m").
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envString returns the env var or the default when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma separated env var, dropping empty entries.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func Load() *Config {
	var defaults Config
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Catalog: CatalogConfig{
			Backend: strings.ToLower(os.Getenv("CATALOG_BACKEND")),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		Extractor: ExtractorConfig{
			MaxFeatures:   envInt("ORB_MAX_FEATURES", defaults.Extractor.MaxFeatures),
			Levels:        envInt("ORB_LEVELS", defaults.Extractor.Levels),
			ScaleFactor:   envFloat("ORB_SCALE_FACTOR", defaults.Extractor.ScaleFactor),
			FastThreshold: envInt("ORB_FAST_THRESHOLD", defaults.Extractor.FastThreshold),
			EdgeThreshold: envInt("ORB_EDGE_THRESHOLD", defaults.Extractor.EdgeThreshold),
			MaxImageSize:  envInt("ORB_MAX_IMAGE_SIZE", defaults.Extractor.MaxImageSize),
		},
		Matching: MatchingConfig{
			Mode:           strings.ToLower(envString("MATCH_MODE", defaults.Matching.Mode)),
			MaxDistance:    envNonNegativeInt("MATCH_MAX_DISTANCE", defaults.Matching.MaxDistance),
			Ratio:          envFloat("MATCH_RATIO", defaults.Matching.Ratio),
			MinGoodMatches: envInt("MATCH_MIN_GOOD", defaults.Matching.MinGoodMatches),
			Workers:        envInt("MATCH_WORKERS", defaults.Matching.Workers),
		},
		Ingest: IngestConfig{
			MaxLocationAge:       envDuration("INGEST_MAX_LOCATION_AGE", defaults.Ingest.MaxLocationAge),
			MaxDescriptionLength: envInt("INGEST_MAX_DESCRIPTION_LENGTH", defaults.Ingest.MaxDescriptionLength),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", defaults.Web.Host),
			Port:           envInt("WEB_PORT", defaults.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", defaults.Web.AllowedOrigins),
		},
	}
}
