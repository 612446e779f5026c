// Package config loads runtime settings from the environment, after an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	BackendCSV      = "csv"
	BackendPostgres = "postgres"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Phrase lists in the environment are separated by this character, since
// phrases may contain commas.
const phraseSeparator = "|"

type Config struct {
	LedgerPath    string
	LedgerBackend string
	DatabaseURL   string

	CredentialsFile string
	TokenFile       string

	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	OpenAIAPIKey string
	OpenAIModel  string

	ConfirmationPhrases []string
	RejectionPhrases    []string
	LookbackDays        int

	Port string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, using environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		LedgerPath:          envOrDefault("JOBS_CSV", "jobs.csv"),
		LedgerBackend:       strings.ToLower(envOrDefault("LEDGER_BACKEND", BackendCSV)),
		DatabaseURL:         strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CredentialsFile:     envOrDefault("GMAIL_CREDENTIALS_FILE", "credentials.json"),
		TokenFile:           envOrDefault("GMAIL_TOKEN_FILE", "token.json"),
		LLMProvider:         strings.ToLower(envOrDefault("LLM_PROVIDER", ProviderGemini)),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:         strings.TrimSpace(os.Getenv("GEMINI_MODEL")),
		OpenAIAPIKey:        strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:         strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		ConfirmationPhrases: phrasesEnv("CONFIRMATION_PHRASES"),
		RejectionPhrases:    phrasesEnv("REJECTION_PHRASES"),
		LookbackDays:        intEnv("LOOKBACK_DAYS", 365),
		Port:                envOrDefault("PORT", "8080"),
	}

	switch cfg.LedgerBackend {
	case BackendCSV:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when LEDGER_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
	return cfg, nil
}

// ValidateSummarizer checks that the selected provider has a key. It is only
// needed by commands that enrich.
func (c *Config) ValidateSummarizer() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	}
	return nil
}

// ValidateMail checks that the OAuth client secret file exists.
func (c *Config) ValidateMail() error {
	if _, err := os.Stat(c.CredentialsFile); err != nil {
		return fmt.Errorf("gmail credentials %s: %w", c.CredentialsFile, err)
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func intEnv(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("[config] invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func phrasesEnv(name string) []string {
	raw := os.Getenv(name)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, phraseSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
