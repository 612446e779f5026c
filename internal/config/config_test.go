package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"JOBS_CSV", "LEDGER_BACKEND", "DATABASE_URL", "GMAIL_CREDENTIALS_FILE", "GMAIL_TOKEN_FILE",
		"LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "OPENAI_API_KEY", "OPENAI_MODEL",
		"CONFIRMATION_PHRASES", "REJECTION_PHRASES", "LOOKBACK_DAYS", "PORT",
	} {
		t.Setenv(name, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.LedgerPath != "jobs.csv" || cfg.LedgerBackend != BackendCSV || cfg.LLMProvider != ProviderGemini {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LookbackDays != 365 || cfg.Port != "8080" || cfg.ConfirmationPhrases != nil {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestFromEnvBackendValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_BACKEND", "postgres")
	if _, err := FromEnv(); err == nil {
		t.Fatal("postgres backend without DATABASE_URL should fail")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	if _, err := FromEnv(); err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}

	t.Setenv("LEDGER_BACKEND", "sqlite")
	if _, err := FromEnv(); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestFromEnvProviderValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "OpenAI")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("provider = %q", cfg.LLMProvider)
	}
	if err := cfg.ValidateSummarizer(); err == nil {
		t.Fatal("openai without a key should fail validation")
	}
	cfg.OpenAIAPIKey = "sk-test"
	if err := cfg.ValidateSummarizer(); err != nil {
		t.Fatalf("ValidateSummarizer returned error: %v", err)
	}

	t.Setenv("LLM_PROVIDER", "claude")
	if _, err := FromEnv(); err == nil {
		t.Fatal("unknown provider should fail")
	}
}

func TestFromEnvPhrasesAndLookback(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIRMATION_PHRASES", " thanks for applying | application received, thanks ||")
	t.Setenv("LOOKBACK_DAYS", "-3")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	want := []string{"thanks for applying", "application received, thanks"}
	if !reflect.DeepEqual(cfg.ConfirmationPhrases, want) {
		t.Fatalf("phrases = %q, want %q", cfg.ConfirmationPhrases, want)
	}
	if cfg.LookbackDays != 365 {
		t.Fatalf("invalid lookback should fall back, got %d", cfg.LookbackDays)
	}

	t.Setenv("LOOKBACK_DAYS", "30")
	if cfg, _ = FromEnv(); cfg.LookbackDays != 30 {
		t.Fatalf("lookback = %d, want 30", cfg.LookbackDays)
	}
}

func TestValidateMail(t *testing.T) {
	cfg := &Config{CredentialsFile: filepath.Join(t.TempDir(), "credentials.json")}
	if err := cfg.ValidateMail(); err == nil {
		t.Fatal("missing credentials file should fail")
	}
	if err := os.WriteFile(cfg.CredentialsFile, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	if err := cfg.ValidateMail(); err != nil {
		t.Fatalf("ValidateMail returned error: %v", err)
	}
}
