package services

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
)

// RejectionSeparator precedes every rejection snippet appended to job_text.
const RejectionSeparator = "\n[Rejection snippet] "

// DateOutcome says how an email Date header was turned into a ledger date.
type DateOutcome int

const (
	DateParsed DateOutcome = iota
	DateMissing
	DateUnparseable
)

func (o DateOutcome) String() string {
	switch o {
	case DateParsed:
		return "parsed"
	case DateMissing:
		return "missing"
	case DateUnparseable:
		return "unparseable"
	}
	return fmt.Sprintf("DateOutcome(%d)", int(o))
}

// Layouts tried after net/mail.ParseDate gives up.
var fallbackDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

// NormalizeDate converts a Date header to YYYY-MM-DD in the header's own
// timezone. Failures yield an empty date and a non-parsed outcome.
func NormalizeDate(raw string) (string, DateOutcome) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", DateMissing
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return t.Format(time.DateOnly), DateParsed
	}
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(time.DateOnly), DateParsed
		}
	}
	return "", DateUnparseable
}

// EventOutcome is the decision taken for one inbound event.
type EventOutcome int

const (
	OutcomeInserted EventOutcome = iota
	OutcomeDuplicate
	OutcomeRejectionApplied
	OutcomeRejectionInserted
)

func (o EventOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeRejectionApplied:
		return "rejection-applied"
	case OutcomeRejectionInserted:
		return "rejection-inserted"
	}
	return fmt.Sprintf("EventOutcome(%d)", int(o))
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Kind       models.EventKind
	Inserted   int
	Updated    int // records transitioned to Rejected, counted per record
	Duplicates int
	Outcomes   []EventOutcome
}

type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// mergeOp is a pending ledger change decided during the scan.
type mergeOp struct {
	outcome EventOutcome
	event   dtos.InboundEvent
	record  models.JobApplication // set for inserts
	targets []int                 // ledger indexes for rejection updates
}

// ledgerKey is the part of a row that matching looks at.
type ledgerKey struct {
	roleTitle   string
	appliedDate string
}

// Reconcile merges events of one kind into the ledger and returns the new
// ledger. The input slice is not modified.
//
// Decisions are made against the ledger as it was at the start of the pass
// plus the rows this pass has already decided to insert; they are applied in
// event order once the scan is complete.
func (s *MatcherService) Reconcile(events []dtos.InboundEvent, ledger []models.JobApplication, kind models.EventKind) ([]models.JobApplication, ReconcileReport, error) {
	report := ReconcileReport{Kind: kind}

	var ops []mergeOp
	switch kind {
	case models.EventConfirmation:
		ops = planConfirmations(events, ledger)
	case models.EventRejection:
		ops = planRejections(events, ledger)
	default:
		return nil, report, fmt.Errorf("unknown event kind %q", kind)
	}

	return applyOps(ledger, ops, &report), report, nil
}

func snapshotKeys(ledger []models.JobApplication) []ledgerKey {
	keys := make([]ledgerKey, len(ledger))
	for i, rec := range ledger {
		keys[i] = ledgerKey{roleTitle: rec.RoleTitle, appliedDate: rec.AppliedDate}
	}
	return keys
}

func newRecord(ev dtos.InboundEvent, date string, status models.Status) models.JobApplication {
	return models.JobApplication{
		Company:     ev.Sender,
		RoleTitle:   ev.Subject,
		AppliedDate: date,
		Status:      status,
		JobText:     ev.Snippet,
	}
}

// planConfirmations treats (role_title, applied_date) as the duplicate key.
// Two undated events with the same subject are duplicates of each other.
func planConfirmations(events []dtos.InboundEvent, ledger []models.JobApplication) []mergeOp {
	keys := snapshotKeys(ledger)
	seen := make(map[ledgerKey]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}

	ops := make([]mergeOp, 0, len(events))
	for _, ev := range events {
		date, _ := NormalizeDate(ev.RawDate)
		key := ledgerKey{roleTitle: ev.Subject, appliedDate: date}
		if seen[key] {
			ops = append(ops, mergeOp{outcome: OutcomeDuplicate, event: ev})
			continue
		}
		seen[key] = true
		ops = append(ops, mergeOp{
			outcome: OutcomeInserted,
			event:   ev,
			record:  newRecord(ev, date, models.StatusApplied),
		})
	}
	return ops
}

// planRejections matches on role_title alone. Every matching row is
// transitioned, so one subject logged for several companies rejects all of
// them.
func planRejections(events []dtos.InboundEvent, ledger []models.JobApplication) []mergeOp {
	keys := snapshotKeys(ledger)

	ops := make([]mergeOp, 0, len(events))
	for _, ev := range events {
		var targets []int
		for i, k := range keys {
			if k.roleTitle == ev.Subject {
				targets = append(targets, i)
			}
		}
		if len(targets) > 0 {
			ops = append(ops, mergeOp{outcome: OutcomeRejectionApplied, event: ev, targets: targets})
			continue
		}

		date, _ := NormalizeDate(ev.RawDate)
		keys = append(keys, ledgerKey{roleTitle: ev.Subject, appliedDate: date})
		ops = append(ops, mergeOp{
			outcome: OutcomeRejectionInserted,
			event:   ev,
			record:  newRecord(ev, date, models.StatusRejected),
		})
	}
	return ops
}

// applyOps replays the plan on a copy of the ledger. Inserts are appended in
// plan order, which keeps the indexes recorded during planning valid.
func applyOps(ledger []models.JobApplication, ops []mergeOp, report *ReconcileReport) []models.JobApplication {
	out := models.Clone(ledger)
	for _, op := range ops {
		report.Outcomes = append(report.Outcomes, op.outcome)
		switch op.outcome {
		case OutcomeDuplicate:
			report.Duplicates++
		case OutcomeInserted, OutcomeRejectionInserted:
			out = append(out, op.record)
			report.Inserted++
			log.Printf("[match] ➕ %s: %q (%s) date=%q", op.outcome, op.record.RoleTitle, op.record.Company, op.record.AppliedDate)
		case OutcomeRejectionApplied:
			for _, idx := range op.targets {
				out[idx].Status = models.StatusRejected
				out[idx].JobText += RejectionSeparator + op.event.Snippet
				report.Updated++
			}
			log.Printf("[match] ⚡ rejection for %q applied to %d record(s)", op.event.Subject, len(op.targets))
		}
	}
	return out
}
