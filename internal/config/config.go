package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Runtime
	Env      string
	LogLevel string
	Port     string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Ingest
	ExchangesFile  string
	CoinAPIKey     string
	CoinAPIURL     string
	Interactive    bool
	RequestTimeout time.Duration
	FetchWorkers   int
	NameCacheSize  int

	// Metrics
	MetricsTextfile string

	// Verify
	VerifyMinAmount int
	VerifySymbols   []string
}

// DefaultVerifySymbols are tickers that must exist once Kraken and CoinAPI
// have both been ingested: Kraken publishes its own codes (XBT, XDG, FEE)
// next to the common ones.
var DefaultVerifySymbols = []string{"XBT", "BTC", "XDG", "DOGE", "FEE", "YOYO", "BQX"}

var appConfig *Config

// Load loads configuration from environment variables. A missing .env file
// is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		Port:     getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "cryptodata"),
		DBPassword: getEnv("DB_PASSWORD", "cryptodata"),
		DBName:     getEnv("DB_NAME", "cryptodata"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ExchangesFile: getEnv("EXCHANGES_FILE", ""),
		CoinAPIKey:    getEnv("COINAPI_KEY", ""),
		CoinAPIURL:    getEnv("COINAPI_URL", "https://rest.coinapi.io"),

		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),
	}

	var err error
	if cfg.Interactive, err = parseBool(getEnv("INTERACTIVE", ""), false); err != nil {
		return nil, fmt.Errorf("invalid INTERACTIVE value: %w", err)
	}
	if cfg.RequestTimeout, err = parseDuration(getEnv("REQUEST_TIMEOUT", ""), 30*time.Second); err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT value: %w", err)
	}
	if cfg.FetchWorkers, err = parsePositiveInt(getEnv("FETCH_WORKERS", ""), 4); err != nil {
		return nil, fmt.Errorf("invalid FETCH_WORKERS value: %w", err)
	}
	if cfg.NameCacheSize, err = parsePositiveInt(getEnv("NAME_CACHE_SIZE", ""), 4096); err != nil {
		return nil, fmt.Errorf("invalid NAME_CACHE_SIZE value: %w", err)
	}
	if cfg.VerifyMinAmount, err = parsePositiveInt(getEnv("VERIFY_MIN_AMOUNT", ""), 5); err != nil {
		return nil, fmt.Errorf("invalid VERIFY_MIN_AMOUNT value: %w", err)
	}

	cfg.VerifySymbols = DefaultVerifySymbols
	if raw := getEnv("VERIFY_SYMBOLS", ""); raw != "" {
		cfg.VerifySymbols = splitList(raw)
	}

	appConfig = cfg
	return cfg, nil
}

// Get returns the loaded configuration, loading it on first use.
func Get() (*Config, error) {
	if appConfig != nil {
		return appConfig, nil
	}
	return Load()
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBool(s string, defaultVal bool) (bool, error) {
	if s == "" {
		return defaultVal, nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("must be true, false, 1, or 0, got %q", s)
	}
}

func parseDuration(s string, defaultVal time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %v", d)
	}
	return d, nil
}

func parsePositiveInt(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
