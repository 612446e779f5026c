package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-ledger-sync/internal/auth"
	"github.com/justsurfingit/job-ledger-sync/internal/config"
	"github.com/justsurfingit/job-ledger-sync/internal/database"
	"github.com/justsurfingit/job-ledger-sync/internal/handlers"
	"github.com/justsurfingit/job-ledger-sync/internal/services"
)

const usage = `usage:
  tracker sync scan-confirmations|scan-rejections|scan-all
  tracker enrich [-input jobs.csv] [-output jobs.csv]
  tracker serve`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "sync":
		err = runSync(ctx, cfg, os.Args[2:])
	case "enrich":
		err = runEnrich(ctx, cfg, os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func runSync(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New(usage)
	}
	mode, err := services.ParseMode(args[0])
	if err != nil {
		return err
	}

	// Credentials and the ledger store are set up before anything is loaded.
	email, err := newEmailService(ctx, cfg)
	if err != nil {
		return err
	}
	store, err := newLedgerStore(cfg, cfg.LedgerPath, false)
	if err != nil {
		return err
	}

	syncService := services.NewSyncService(email, services.NewMatcherService(), nil)
	_, err = syncService.Reconcile(ctx, store, mode)
	return err
}

func runEnrich(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	input := fs.String("input", cfg.LedgerPath, "path to input ledger CSV")
	output := fs.String("output", "", "path to output ledger CSV (default: same as input)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		*output = *input
	}

	if err := cfg.ValidateSummarizer(); err != nil {
		return err
	}
	in, err := newLedgerStore(cfg, *input, true)
	if err != nil {
		return err
	}
	out, err := newLedgerStore(cfg, *output, false)
	if err != nil {
		return err
	}
	summarizer, err := newSummarizer(ctx, cfg)
	if err != nil {
		return err
	}

	syncService := services.NewSyncService(nil, nil, services.NewEnrichmentService(summarizer))
	result, err := syncService.Enrich(ctx, in, out)
	if err != nil {
		return err
	}
	log.Printf("Saved to: %s", *output)
	if n := len(result.Report.Failures); n > 0 {
		log.Printf("⚠️  %d record(s) could not be summarized and stay eligible for the next run.", n)
	}
	return nil
}

// runServe starts the HTTP surface. Gmail and the summarizer are optional
// here: missing ones disable the matching endpoint.
func runServe(ctx context.Context, cfg *config.Config) error {
	store, err := newLedgerStore(cfg, cfg.LedgerPath, false)
	if err != nil {
		return err
	}

	var email *services.EmailService
	if err := cfg.ValidateMail(); err != nil {
		log.Printf("⚠️  Gmail sync disabled: %v", err)
	} else if email, err = newEmailService(ctx, cfg); err != nil {
		log.Printf("⚠️  Gmail sync disabled: %v", err)
	}

	enrichment := services.NewEnrichmentService(nil)
	if err := cfg.ValidateSummarizer(); err != nil {
		log.Printf("⚠️  Enrichment disabled: %v", err)
	} else {
		summarizer, err := newSummarizer(ctx, cfg)
		if err != nil {
			return err
		}
		enrichment.Summarizer = summarizer
	}

	syncService := services.NewSyncService(email, services.NewMatcherService(), enrichment)
	router := handlers.NewRouter(handlers.NewLedgerHandler(syncService, store))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Server starting on port %s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newEmailService(ctx context.Context, cfg *config.Config) (*services.EmailService, error) {
	log.Println("Initializing Gmail Client...")
	gmailService, err := auth.NewGmailService(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	log.Println("✅ Gmail Service connected successfully.")
	return services.NewEmailService(
		services.NewGmailSource(gmailService),
		cfg.ConfirmationPhrases,
		cfg.RejectionPhrases,
		cfg.LookbackDays,
	), nil
}

// newLedgerStore returns the configured backend. For CSV, requireExisting
// turns a missing file into database.ErrLedgerNotFound.
func newLedgerStore(cfg *config.Config, path string, requireExisting bool) (services.LedgerStore, error) {
	switch cfg.LedgerBackend {
	case config.BackendPostgres:
		store, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		store := database.NewCSVStore(path)
		store.RequireExisting = requireExisting
		if requireExisting && !store.Exists() {
			return nil, fmt.Errorf("input CSV: %w: %s", database.ErrLedgerNotFound, path)
		}
		return store, nil
	}
}

func newSummarizer(ctx context.Context, cfg *config.Config) (services.Summarizer, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		s, err := services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		s, err := services.NewLLMService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func init() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
