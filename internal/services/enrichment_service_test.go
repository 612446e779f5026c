package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/justsurfingit/job-ledger-sync/internal/mocks"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
	"go.uber.org/mock/gomock"
)

func TestBackfillFillsEmptySummaries(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)
	summarizer.EXPECT().
		Summarize(gomock.Any(), "jobs@acme.com", "Software Engineer", "Build APIs in Go").
		Return(dtos.SummaryResult{
			Summary: "Backend role building Go services.",
			Skills:  dtos.Skills("Go", "PostgreSQL", "AWS"),
			Salary:  "$120k-140k",
		}, nil)

	ledger := []models.JobApplication{
		{Company: "jobs@acme.com", RoleTitle: "Software Engineer", JobText: "Build APIs in Go", Summary: "  "},
	}
	out, report, err := NewEnrichmentService(summarizer).Backfill(context.Background(), ledger)
	if err != nil {
		t.Fatalf("Backfill returned error: %v", err)
	}
	if report.Updated != 1 {
		t.Fatalf("expected 1 updated, got %d", report.Updated)
	}
	got := out[0]
	if got.Summary != "Backend role building Go services." || got.Skills != "Go, PostgreSQL, AWS" || got.Salary != "$120k-140k" {
		t.Fatalf("unexpected enrichment %+v", got)
	}
	if ledger[0].Summary != "  " {
		t.Fatal("input ledger was mutated")
	}
}

func TestBackfillStoresScalarSkillsAsIs(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)
	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dtos.SummaryResult{Summary: "s", Skills: dtos.ScalarSkills("Go and Kubernetes"), Salary: "unknown"}, nil)

	out, _, err := NewEnrichmentService(summarizer).Backfill(context.Background(), []models.JobApplication{{RoleTitle: "SRE"}})
	if err != nil {
		t.Fatalf("Backfill returned error: %v", err)
	}
	if out[0].Skills != "Go and Kubernetes" {
		t.Fatalf("skills = %q", out[0].Skills)
	}
}

func TestBackfillNeverOverwritesFilledRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)
	// No EXPECT: any call fails the test.

	ledger := []models.JobApplication{
		{RoleTitle: "Analyst", Summary: "already done", Skills: "SQL", Salary: ""},
		{RoleTitle: "Engineer", Summary: "also done", Skills: "", Salary: "unknown"},
	}
	out, report, err := NewEnrichmentService(summarizer).Backfill(context.Background(), ledger)
	if err != nil {
		t.Fatalf("Backfill returned error: %v", err)
	}
	if !reflect.DeepEqual(out, ledger) {
		t.Fatalf("filled records changed:\n got %+v\nwant %+v", out, ledger)
	}
	if report.Skipped != 2 || report.Updated != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestBackfillIsolatesFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)
	boom := errors.New("rate limited")

	ledger := []models.JobApplication{
		{RoleTitle: "r0"},
		{RoleTitle: "r1"},
		{RoleTitle: "r2", Summary: "done"},
		{RoleTitle: "r3"},
		{RoleTitle: "r4"},
	}
	failing := map[string]bool{"r1": true, "r4": true}
	summarizer.EXPECT().Summarize(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, role, _ string) (dtos.SummaryResult, error) {
			if failing[role] {
				return dtos.SummaryResult{}, boom
			}
			return dtos.SummaryResult{Summary: "summary of " + role, Skills: dtos.Skills("x")}, nil
		}).Times(4)

	svc := NewEnrichmentService(summarizer)
	out, report, err := svc.Backfill(context.Background(), ledger)
	if err != nil {
		t.Fatalf("Backfill returned error: %v", err)
	}

	eligible := 4
	if report.Updated != eligible-len(failing) {
		t.Fatalf("updated = %d, want %d", report.Updated, eligible-len(failing))
	}
	if len(report.Failures) != 2 || report.Failures[0].Index != 1 || report.Failures[1].Index != 4 {
		t.Fatalf("unexpected failures %+v", report.Failures)
	}
	if !errors.Is(report.Failures[0], boom) {
		t.Fatalf("failure should wrap summarizer error, got %v", report.Failures[0])
	}
	wantOutcomes := []EnrichOutcome{Enriched, EnrichFailed, EnrichSkipped, Enriched, EnrichFailed}
	if !reflect.DeepEqual(report.Outcomes, wantOutcomes) {
		t.Fatalf("outcomes = %v, want %v", report.Outcomes, wantOutcomes)
	}
	for _, i := range []int{1, 4} {
		if !out[i].NeedsEnrichment() {
			t.Fatalf("failed record %d should stay eligible: %+v", i, out[i])
		}
	}
}

func TestBackfillRerunOnlyRetriesFailedRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)

	ledger := []models.JobApplication{{RoleTitle: "ok"}, {RoleTitle: "flaky"}}
	gomock.InOrder(
		summarizer.EXPECT().Summarize(gomock.Any(), "", "ok", "").Return(dtos.SummaryResult{Summary: "ok summary"}, nil),
		summarizer.EXPECT().Summarize(gomock.Any(), "", "flaky", "").Return(dtos.SummaryResult{}, errors.New("timeout")),
		summarizer.EXPECT().Summarize(gomock.Any(), "", "flaky", "").Return(dtos.SummaryResult{Summary: "flaky summary"}, nil),
	)

	svc := NewEnrichmentService(summarizer)
	first, report, err := svc.Backfill(context.Background(), ledger)
	if err != nil || report.Updated != 1 {
		t.Fatalf("first pass: updated=%d err=%v", report.Updated, err)
	}
	second, report, err := svc.Backfill(context.Background(), first)
	if err != nil || report.Updated != 1 || report.Skipped != 1 {
		t.Fatalf("second pass: report=%+v err=%v", report, err)
	}
	if second[0].Summary != "ok summary" || second[1].Summary != "flaky summary" {
		t.Fatalf("unexpected ledger %+v", second)
	}
}

func TestBackfillStopsOnCancelledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	summarizer := mocks.NewMockSummarizer(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, _, err := NewEnrichmentService(summarizer).Backfill(ctx, []models.JobApplication{{RoleTitle: "x"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out != nil {
		t.Fatal("no ledger should be returned from an interrupted pass")
	}
}
