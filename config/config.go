package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Listing sources understood by LISTING_SOURCE.
const (
	SourceAPI      = "api"
	SourceMock     = "mock"
	SourcePostgres = "postgres"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIBaseURL    string
	APIPrefix     string
	ImageBaseURL  string
	UploadPrefix  string
	ListingSource string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SessionFile string

	LogLevel       string
	LogJSON        bool
	FluentEnabled  bool
	FluentHost     string
	FluentPort     int
	FluentLogLevel string
	AppName        string

	ServerPort  string
	CORSOrigins []string

	MaxConcurrency int
	MaxRetries     int
	AlertWatchSpec string
	CSVOutputPath  string
	ChromeBin      string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	apiBase := strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000"), "/")

	cfg := &Config{
		APIBaseURL:    apiBase,
		APIPrefix:     getEnv("API_PREFIX", "/api"),
		ImageBaseURL:  strings.TrimRight(getEnv("IMAGE_BASE_URL", apiBase), "/"),
		UploadPrefix:  getEnv("UPLOAD_PREFIX", "/uploads"),
		ListingSource: strings.ToLower(getEnv("LISTING_SOURCE", SourceAPI)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "marketplace"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "marketplace123"),
		PostgresDB:       getEnv("POSTGRES_DB", "vehicles_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SessionFile: getEnv("SESSION_FILE", defaultSessionFile()),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogJSON:        getEnvBool("LOG_JSON", false),
		FluentEnabled:  getEnvBool("FLUENTBIT_ENABLED", false),
		FluentHost:     getEnv("FLUENTBIT_HOST", ""),
		FluentPort:     getEnvInt("FLUENTBIT_PORT", 24224),
		FluentLogLevel: getEnv("FLUENTBIT_LOG_LEVEL", "info"),
		AppName:        getEnv("APP_NAME", "vehicle-marketplace"),

		ServerPort:  getEnv("SERVER_PORT", "8080"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		MaxRetries:     getEnvInt("MAX_RETRIES", 5),
		AlertWatchSpec: getEnv("ALERT_WATCH_SPEC", "@every 15m"),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		ChromeBin:      getEnv("CHROME_BIN", ""),
	}

	if cfg.FluentEnabled && cfg.FluentHost == "" {
		log.Println("[config] FLUENTBIT_ENABLED is true but FLUENTBIT_HOST is empty, disabling Fluent Bit")
		cfg.FluentEnabled = false
	}

	return cfg
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// APIURL joins the configured base URL, prefix and path.
func (c *Config) APIURL(path string) string {
	path = strings.TrimLeft(path, "/")
	if prefix := strings.Trim(c.APIPrefix, "/"); prefix != "" {
		return c.APIBaseURL + "/" + prefix + "/" + path
	}
	return c.APIBaseURL + "/" + path
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".marketplace-session.json"
	}
	return filepath.Join(dir, "vehicle-marketplace", "session.json")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] %s=%q is not an integer, using %d", key, val, fallback)
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
		log.Printf("[config] %s=%q is not a boolean, using %t", key, val, fallback)
	}
	return fallback
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
