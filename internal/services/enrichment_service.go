package services

import (
	"context"
	"fmt"
	"log"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
)

//go:generate mockgen -destination=../mocks/summarizer_mock.go -package=mocks github.com/justsurfingit/job-ledger-sync/internal/services Summarizer

// Summarizer derives summary, skills and salary for one application.
type Summarizer interface {
	Summarize(ctx context.Context, company, roleTitle, jobText string) (dtos.SummaryResult, error)
}

// EnrichOutcome is what backfill did with one record.
type EnrichOutcome int

const (
	EnrichSkipped EnrichOutcome = iota // summary already present
	Enriched
	EnrichFailed // left untouched, still eligible next run
)

func (o EnrichOutcome) String() string {
	switch o {
	case EnrichSkipped:
		return "skipped"
	case Enriched:
		return "enriched"
	case EnrichFailed:
		return "failed"
	}
	return fmt.Sprintf("EnrichOutcome(%d)", int(o))
}

// EnrichFailure describes a record the summarizer could not handle.
type EnrichFailure struct {
	Index     int
	Company   string
	RoleTitle string
	Err       error
}

func (f EnrichFailure) Error() string {
	return fmt.Sprintf("row %d (%s - %s): %v", f.Index, f.Company, f.RoleTitle, f.Err)
}

func (f EnrichFailure) Unwrap() error { return f.Err }

type BackfillReport struct {
	Updated  int
	Skipped  int
	Failures []EnrichFailure
	Outcomes []EnrichOutcome // one per ledger row
}

type EnrichmentService struct {
	Summarizer Summarizer
}

func NewEnrichmentService(s Summarizer) *EnrichmentService {
	return &EnrichmentService{Summarizer: s}
}

// EnrichRecord fills summary, skills and salary on a single record. It never
// touches a record that already has a summary.
func (s *EnrichmentService) EnrichRecord(ctx context.Context, rec *models.JobApplication) (EnrichOutcome, error) {
	if !rec.NeedsEnrichment() {
		return EnrichSkipped, nil
	}
	res, err := s.Summarizer.Summarize(ctx, rec.Company, rec.RoleTitle, rec.JobText)
	if err != nil {
		return EnrichFailed, err
	}
	rec.Summary = res.Summary
	rec.Skills = res.Skills.String()
	rec.Salary = res.Salary
	return Enriched, nil
}

// Backfill runs EnrichRecord over every row in ledger order. Summarizer
// failures are collected and do not stop the pass; only a cancelled context
// aborts it, in which case no ledger is returned.
func (s *EnrichmentService) Backfill(ctx context.Context, ledger []models.JobApplication) ([]models.JobApplication, BackfillReport, error) {
	out := models.Clone(ledger)
	report := BackfillReport{Outcomes: make([]EnrichOutcome, 0, len(out))}

	for i := range out {
		if err := ctx.Err(); err != nil {
			return nil, report, fmt.Errorf("backfill interrupted at row %d: %w", i, err)
		}
		rec := &out[i]
		if rec.NeedsEnrichment() {
			log.Printf("[enrich] Summarizing: %s - %s ...", rec.Company, rec.RoleTitle)
		}

		outcome, err := s.EnrichRecord(ctx, rec)
		report.Outcomes = append(report.Outcomes, outcome)
		switch outcome {
		case EnrichSkipped:
			report.Skipped++
		case Enriched:
			report.Updated++
		case EnrichFailed:
			failure := EnrichFailure{Index: i, Company: rec.Company, RoleTitle: rec.RoleTitle, Err: err}
			report.Failures = append(report.Failures, failure)
			log.Printf("[enrich] ❌ %v", failure)
		}
	}
	return out, report, nil
}
