package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// VarError reports a missing or malformed environment variable. It is
// detected at load time, before any network call is made.
type VarError struct {
	Name   string
	Reason string
}

func (e *VarError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Name, e.Reason)
}

type Config struct {
	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Ledger OAuth2
	LedgerClientID     string
	LedgerClientSecret string
	LedgerRedirectURI  string
	LedgerBaseURL      string
	LedgerAuthURL      string
	LedgerTokenURL     string
	LedgerAccessToken  string

	// Expense defaults
	DefaultCurrency string
	DefaultGroupID  int64
	MinConfidence   float64

	// Web Server
	WebBind   string
	JWTSecret string

	// Logging
	LogFile string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnvDefault("OPENAI_MODEL", "gpt-4"),
		LedgerClientID:     os.Getenv("LEDGER_CLIENT_ID"),
		LedgerClientSecret: os.Getenv("LEDGER_CLIENT_SECRET"),
		LedgerRedirectURI:  getEnvDefault("LEDGER_REDIRECT_URI", "http://localhost:8080/callback"),
		LedgerBaseURL:      getEnvDefault("LEDGER_BASE_URL", "https://secure.splitwise.com/api/v3.0"),
		LedgerAuthURL:      getEnvDefault("LEDGER_AUTH_URL", "https://secure.splitwise.com/oauth/authorize"),
		LedgerTokenURL:     getEnvDefault("LEDGER_TOKEN_URL", "https://secure.splitwise.com/oauth/token"),
		LedgerAccessToken:  os.Getenv("LEDGER_ACCESS_TOKEN"),
		DefaultCurrency:    getEnvDefault("DEFAULT_CURRENCY", "USD"),
		WebBind:            getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
		JWTSecret:          getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		LogFile:            os.Getenv("LOG_FILE"),
	}

	if v := os.Getenv("DEFAULT_GROUP_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, &VarError{Name: "DEFAULT_GROUP_ID", Reason: "must be an integer"}
		}
		cfg.DefaultGroupID = id
	}

	cfg.MinConfidence = 0.6
	if v := os.Getenv("MIN_CONFIDENCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, &VarError{Name: "MIN_CONFIDENCE", Reason: "must be a number in [0,1]"}
		}
		cfg.MinConfidence = f
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, &VarError{Name: "OPENAI_API_KEY", Reason: "is required"}
	}
	if cfg.LedgerClientID == "" {
		return nil, &VarError{Name: "LEDGER_CLIENT_ID", Reason: "is required"}
	}
	if cfg.LedgerClientSecret == "" {
		return nil, &VarError{Name: "LEDGER_CLIENT_SECRET", Reason: "is required"}
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
