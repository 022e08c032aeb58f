package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// Database
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxIdleTime int // in minutes
	DBConnMaxLifetime int // in minutes

	// Geocoding
	GeocoderBaseURL   string
	GeocoderUserAgent string

	// Scraping
	FirecrawlAPIKey       string
	FirecrawlBaseURL      string
	ScrapeTargetSites     []string
	ScrapeTimeoutSeconds  int
	ScrapeSchedule        string // cron expression, empty disables scheduled scraping
	ScrapeMinDiscount     float64
	DealExpiryIntervalMin int // minutes between expired-deal sweeps, 0 disables

	// Area relevance rules
	AreaRulesFile string

	// Push Notifications
	PushEnabled      bool
	VAPIDPublicKey   string
	VAPIDPrivateKey  string
	VAPIDSubscriber  string // contact mailto/URL sent to push services
	ServiceWorkerDir string

	// Server
	ServerShutdownTimeoutSeconds int

	// CORS
	CORSAllowedOrigins string

	// Logging
	LogLevel  string
	LogFormat string
}

var AppConfig *Config

func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	AppConfig = &Config{
		Port:    getEnvOrDefault("PORT", "8001"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),

		// Database
		DatabaseURL:       getEnvOrDefault("DATABASE_URL", "postgres://localhost/dealradar?sslmode=disable"),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 15),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxIdleTime: getEnvAsInt("DB_CONN_MAX_IDLE_TIME_MINUTES", 1),
		DBConnMaxLifetime: getEnvAsInt("DB_CONN_MAX_LIFETIME_MINUTES", 30),

		// Geocoding
		GeocoderBaseURL:   getEnvOrDefault("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent: getEnvOrDefault("GEOCODER_USER_AGENT", "dealradar/1.0"),

		// Scraping
		FirecrawlAPIKey:       getEnvOrDefault("FIRECRAWL_API_KEY", ""),
		FirecrawlBaseURL:      getEnvOrDefault("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev/v1/scrape"),
		ScrapeTargetSites:     getEnvAsList("SCRAPE_TARGET_SITES", "https://www.example-retail.com,https://www.example-restaurant.com"),
		ScrapeTimeoutSeconds:  getEnvAsInt("SCRAPE_TIMEOUT_SECONDS", 30),
		ScrapeSchedule:        getEnvOrDefault("SCRAPE_SCHEDULE", ""),
		ScrapeMinDiscount:     getEnvFloat("SCRAPE_MIN_DISCOUNT", 15),
		DealExpiryIntervalMin: getEnvAsInt("DEAL_EXPIRY_INTERVAL_MINUTES", 60),

		// Area relevance rules
		AreaRulesFile: getEnvOrDefault("AREA_RULES_FILE", ""),

		// Push Notifications
		PushEnabled:      getEnvOrDefault("PUSH_NOTIFICATIONS_ENABLED", "true") == "true",
		VAPIDPublicKey:   getEnvOrDefault("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:  getEnvOrDefault("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:  getEnvOrDefault("VAPID_SUBSCRIBER", "mailto:ops@dealradar.dev"),
		ServiceWorkerDir: getEnvOrDefault("SERVICE_WORKER_DIR", "web/static"),

		// Server
		ServerShutdownTimeoutSeconds: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT_SECONDS", 30),

		// CORS
		CORSAllowedOrigins: getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"),

		// Logging
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "debug"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if AppConfig.FirecrawlAPIKey == "" {
		log.Println("Warning: Firecrawl API key is missing. Please set FIRECRAWL_API_KEY environment variable.")
	}

	if AppConfig.PushEnabled && (AppConfig.VAPIDPublicKey == "" || AppConfig.VAPIDPrivateKey == "") {
		log.Println("Warning: VAPID key pair is missing. Please set VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY environment variables.")
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as int, using default %d: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		} else {
			log.Printf("Warning: Failed to parse environment variable %s='%s' as float, using default %f: %v", key, value, defaultValue, err)
		}
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
