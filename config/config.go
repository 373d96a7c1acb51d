package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	InputCSVPath  string
	CleanCSVPath  string
	CleanXLSXPath string

	ChartsEnabled bool
	ChartsDir     string

	HeadRows         int
	TopNeighborhoods int
	PriceCapQuantile float64

	// ParsePolicyOverrides maps column name to "strict" or "coerce" and
	// overrides the default parse policy of the cleaning pipeline.
	ParsePolicyOverrides map[string]string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
	MaxRetries       int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		InputCSVPath:  getEnv("INPUT_CSV_PATH", "Airbnb_Open_Data.csv"),
		CleanCSVPath:  getEnv("CLEAN_CSV_PATH", "./output/Airbnb_Open_Data_cleaned.csv"),
		CleanXLSXPath: getEnv("CLEAN_XLSX_PATH", "./output/Airbnb_Open_Data_cleaned.xlsx"),

		ChartsEnabled: getEnvBool("CHARTS_ENABLED", true),
		ChartsDir:     getEnv("CHARTS_DIR", "./output/charts"),

		HeadRows:         getEnvInt("HEAD_ROWS", 5),
		TopNeighborhoods: getEnvInt("TOP_NEIGHBORHOODS", 10),
		PriceCapQuantile: getEnvFloat("PRICE_CAP_QUANTILE", 0.99),

		ParsePolicyOverrides: parseOverrides(getEnv("PARSE_POLICY_OVERRIDES", "")),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "cleaner"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "cleaner123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
	}
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

// parseOverrides splits "price=coerce,service_fee=strict" into a map. Pair
// values are validated by the cleaning pipeline, not here.
func parseOverrides(raw string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !found || key == "" || value == "" {
			log.Printf("[config] Ignoring malformed parse policy override %q", pair)
			continue
		}
		out[key] = value
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := cast.ToIntE(val); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := cast.ToFloat64E(val); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := cast.ToBoolE(val); err == nil {
			return b
		}
	}
	return fallback
}
