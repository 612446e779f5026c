package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
)

// LedgerStore loads and persists the whole ledger. Persist is a total
// overwrite.
type LedgerStore interface {
	Load(ctx context.Context) ([]models.JobApplication, error)
	Persist(ctx context.Context, ledger []models.JobApplication) error
}

// Mode selects which reconciliation passes a sync runs.
type Mode string

const (
	ModeConfirmations Mode = "scan-confirmations"
	ModeRejections    Mode = "scan-rejections"
	ModeAll           Mode = "scan-all"
)

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	switch m {
	case ModeConfirmations, ModeRejections, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("unknown sync mode %q (want %s, %s or %s)", s, ModeConfirmations, ModeRejections, ModeAll)
}

// Kinds lists the passes for the mode. Confirmations always run first.
func (m Mode) Kinds() []models.EventKind {
	switch m {
	case ModeConfirmations:
		return []models.EventKind{models.EventConfirmation}
	case ModeRejections:
		return []models.EventKind{models.EventRejection}
	case ModeAll:
		return []models.EventKind{models.EventConfirmation, models.EventRejection}
	}
	return nil
}

var ErrNoSummarizer = errors.New("no summarizer configured")

// SyncResult describes a completed reconciliation run.
type SyncResult struct {
	RunID   string
	Mode    Mode
	Passes  []ReconcileReport
	Collect []CollectReport
	Total   int // ledger size after the run
}

// EnrichResult describes a completed backfill run.
type EnrichResult struct {
	RunID  string
	Report BackfillReport
	Total  int
}

// SyncService sequences load, passes and persist. Everything is kept in
// memory until the end of the run, so a failed run leaves the stored ledger
// as it was.
type SyncService struct {
	Email      *EmailService
	Matcher    *MatcherService
	Enrichment *EnrichmentService
}

func NewSyncService(email *EmailService, matcher *MatcherService, enrichment *EnrichmentService) *SyncService {
	return &SyncService{Email: email, Matcher: matcher, Enrichment: enrichment}
}

// Reconcile loads the ledger, runs the passes selected by mode and persists.
func (s *SyncService) Reconcile(ctx context.Context, store LedgerStore, mode Mode) (SyncResult, error) {
	result := SyncResult{RunID: uuid.NewString(), Mode: mode}
	kinds := mode.Kinds()
	if len(kinds) == 0 {
		return result, fmt.Errorf("unknown sync mode %q", mode)
	}
	if s.Email == nil || s.Email.Source == nil {
		return result, fmt.Errorf("%w: no mail source configured", ErrMailUnreachable)
	}
	logPrefix := fmt.Sprintf("[sync %s]", result.RunID[:8])

	ledger, err := store.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("load ledger: %w", err)
	}
	log.Printf("%s 📒 Loaded %d record(s), mode=%s", logPrefix, len(ledger), mode)

	for _, kind := range kinds {
		log.Printf("%s 📧 Scanning for %s emails...", logPrefix, kind)
		events, collected, err := s.Email.Collect(ctx, kind)
		result.Collect = append(result.Collect, collected)
		if err != nil {
			return result, fmt.Errorf("%s pass: %w", kind, err)
		}

		var report ReconcileReport
		ledger, report, err = s.Matcher.Reconcile(events, ledger, kind)
		if err != nil {
			return result, fmt.Errorf("%s pass: %w", kind, err)
		}
		result.Passes = append(result.Passes, report)
		log.Printf("%s ✅ %s pass: inserted=%d updated=%d duplicates=%d skipped=%d",
			logPrefix, kind, report.Inserted, report.Updated, report.Duplicates, collected.Skipped)
	}

	if err := store.Persist(ctx, ledger); err != nil {
		return result, fmt.Errorf("persist ledger: %w", err)
	}
	result.Total = len(ledger)
	log.Printf("%s 💾 Saved %d record(s)", logPrefix, len(ledger))
	return result, nil
}

// Enrich loads from in, backfills missing summaries and persists to out. in
// and out may be the same store.
func (s *SyncService) Enrich(ctx context.Context, in, out LedgerStore) (EnrichResult, error) {
	result := EnrichResult{RunID: uuid.NewString()}
	if s.Enrichment == nil || s.Enrichment.Summarizer == nil {
		return result, ErrNoSummarizer
	}
	logPrefix := fmt.Sprintf("[enrich %s]", result.RunID[:8])

	ledger, err := in.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("load ledger: %w", err)
	}
	log.Printf("%s 📒 Loaded %d record(s)", logPrefix, len(ledger))

	ledger, report, err := s.Enrichment.Backfill(ctx, ledger)
	result.Report = report
	if err != nil {
		return result, err
	}

	if err := out.Persist(ctx, ledger); err != nil {
		return result, fmt.Errorf("persist ledger: %w", err)
	}
	result.Total = len(ledger)
	log.Printf("%s Done. Updated %d job(s), %d failed, %d already summarized.",
		logPrefix, report.Updated, len(report.Failures), report.Skipped)
	return result, nil
}
