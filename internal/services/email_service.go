package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"github.com/justsurfingit/job-ledger-sync/internal/models"
)

var (
	// ErrMailUnreachable aborts a reconciliation pass.
	ErrMailUnreachable = errors.New("mail source unreachable")
	// ErrMessageUnavailable marks a single message that could not be
	// fetched; the pass continues without it.
	ErrMessageUnavailable = errors.New("message unavailable")
)

//go:generate mockgen -destination=../mocks/mail_source_mock.go -package=mocks github.com/justsurfingit/job-ledger-sync/internal/services MailSource

// MailSource is the mail collaborator. Search pages through every result.
type MailSource interface {
	Search(ctx context.Context, query string) ([]string, error)
	Fetch(ctx context.Context, id string) (dtos.MailMessage, error)
}

var DefaultConfirmationPhrases = []string{
	"application received",
	"thank you for applying",
	"we received your application",
	"your application has been submitted",
}

var DefaultRejectionPhrases = []string{
	"regret to inform you",
	"decided not to move forward",
	"unfortunately we will not be moving forward",
	"after careful consideration, we have decided",
}

const DefaultLookbackDays = 365

func quotedAlternatives(phrases []string) string {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(p, `"`, "")+`"`)
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}

// BuildConfirmationQuery matches any phrase in the subject line.
func BuildConfirmationQuery(phrases []string, days int) string {
	return fmt.Sprintf("subject:%s newer_than:%dd", quotedAlternatives(phrases), days)
}

// BuildRejectionQuery matches any phrase anywhere in the message.
func BuildRejectionQuery(phrases []string, days int) string {
	return fmt.Sprintf("%s newer_than:%dd", quotedAlternatives(phrases), days)
}

// CollectReport counts what happened while fetching one query's messages.
type CollectReport struct {
	Found   int
	Fetched int
	Skipped int
}

type EmailService struct {
	Source              MailSource
	ConfirmationPhrases []string
	RejectionPhrases    []string
	LookbackDays        int
}

func NewEmailService(src MailSource, confirmations, rejections []string, lookbackDays int) *EmailService {
	if len(confirmations) == 0 {
		confirmations = DefaultConfirmationPhrases
	}
	if len(rejections) == 0 {
		rejections = DefaultRejectionPhrases
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &EmailService{
		Source:              src,
		ConfirmationPhrases: confirmations,
		RejectionPhrases:    rejections,
		LookbackDays:        lookbackDays,
	}
}

// Query returns the search string for an event kind.
func (s *EmailService) Query(kind models.EventKind) (string, error) {
	switch kind {
	case models.EventConfirmation:
		return BuildConfirmationQuery(s.ConfirmationPhrases, s.LookbackDays), nil
	case models.EventRejection:
		return BuildRejectionQuery(s.RejectionPhrases, s.LookbackDays), nil
	}
	return "", fmt.Errorf("unknown event kind %q", kind)
}

// Collect runs the query for kind and fetches every hit, in search order.
// A search failure, or a fetch failure other than ErrMessageUnavailable, is
// returned wrapped in ErrMailUnreachable.
func (s *EmailService) Collect(ctx context.Context, kind models.EventKind) ([]dtos.InboundEvent, CollectReport, error) {
	var report CollectReport
	query, err := s.Query(kind)
	if err != nil {
		return nil, report, err
	}

	ids, err := s.Source.Search(ctx, query)
	if err != nil {
		return nil, report, fmt.Errorf("%w: search %s: %w", ErrMailUnreachable, kind, err)
	}
	report.Found = len(ids)
	log.Printf("[mail] Found %d potential %s emails.", len(ids), kind)

	events := make([]dtos.InboundEvent, 0, len(ids))
	for _, id := range ids {
		msg, err := s.Source.Fetch(ctx, id)
		if err != nil {
			if errors.Is(err, ErrMessageUnavailable) {
				report.Skipped++
				log.Printf("[mail] ⚠️ skipping message %s: %v", id, err)
				continue
			}
			return nil, report, fmt.Errorf("%w: fetch %s: %w", ErrMailUnreachable, id, err)
		}
		if msg.ID == "" {
			msg.ID = id
		}
		events = append(events, dtos.EventFromMessage(msg))
		report.Fetched++
	}
	return events, report, nil
}
