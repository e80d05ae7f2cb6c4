package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	Workflow WorkflowConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// WorkflowConfig holds the custody workflow policy knobs. Borrowing and
// maintenance carry independent criticality thresholds.
type WorkflowConfig struct {
	BorrowCriticalValue float64
	MaintCriticalValue  float64
	CriticalCategories  []string
	MaxExtensions       int
	MaxExtensionDays    int
	CasRetries          int
	VerifyChecklist     []string
	ApproveChecklist    []string
	CriticalApproveList []string
	OverdueCron         string
	WebhookURL          string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	// Build config based on APP_MODE
	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		JWT:      loadJWTConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Workflow: loadWorkflowConfig(),
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "sitegear_custody"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadWorkflowConfig loads workflow policy knobs
func loadWorkflowConfig() WorkflowConfig {
	borrowValue, _ := strconv.ParseFloat(getEnv("BORROW_CRITICAL_VALUE", "50000"), 64)
	maintValue, _ := strconv.ParseFloat(getEnv("MAINT_CRITICAL_VALUE", "100000"), 64)
	maxExt, _ := strconv.Atoi(getEnv("MAX_EXTENSIONS", "2"))
	maxExtDays, _ := strconv.Atoi(getEnv("MAX_EXTENSION_DAYS", "30"))
	casRetries, _ := strconv.Atoi(getEnv("CAS_RETRIES", "3"))

	return WorkflowConfig{
		BorrowCriticalValue: borrowValue,
		MaintCriticalValue:  maintValue,
		CriticalCategories:  splitCSV(getEnv("CRITICAL_CATEGORIES", "HEAVY_EQUIPMENT,SURVEYING,LIFTING")),
		MaxExtensions:       maxExt,
		MaxExtensionDays:    maxExtDays,
		CasRetries:          casRetries,
		VerifyChecklist:     splitCSV(getEnv("VERIFY_CHECKLIST", "items_inspected,quantities_match")),
		ApproveChecklist:    splitCSV(getEnv("APPROVE_CHECKLIST", "")),
		CriticalApproveList: splitCSV(getEnv("CRITICAL_APPROVE_CHECKLIST", "budget_confirmed")),
		OverdueCron:         getEnv("OVERDUE_CRON", "0 7 * * *"),
		WebhookURL:          getEnv("WEBHOOK_URL", ""),
	}
}

// splitCSV splits a comma-separated env value, dropping empty entries
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://custody.sitegear.io"
	}
	return origins
}
