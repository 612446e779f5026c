package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/justsurfingit/job-ledger-sync/internal/dtos"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

const gmailUser = "me"

// GmailSource implements MailSource on top of the Gmail API.
type GmailSource struct {
	GmailClient *gmail.Service
	PageSize    int64

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

func NewGmailSource(client *gmail.Service) *GmailSource {
	return &GmailSource{GmailClient: client, PageSize: 200, sleep: time.Sleep}
}

// Search lists every message id matching query, following page tokens.
func (s *GmailSource) Search(ctx context.Context, query string) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		var resp *gmail.ListMessagesResponse
		err := s.retry(3, 1*time.Second, func() error {
			call := s.GmailClient.Users.Messages.List(gmailUser).Q(query).MaxResults(s.PageSize)
			if pageToken != "" {
				call.PageToken(pageToken)
			}
			var e error
			resp, e = call.Context(ctx).Do()
			return e
		})
		if err != nil {
			return nil, err
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Fetch loads the From, Subject and Date headers plus the snippet. A message
// that no longer exists is reported as ErrMessageUnavailable.
func (s *GmailSource) Fetch(ctx context.Context, id string) (dtos.MailMessage, error) {
	var msg *gmail.Message
	err := s.retry(2, 500*time.Millisecond, func() error {
		var e error
		msg, e = s.GmailClient.Users.Messages.Get(gmailUser, id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		return e
	})
	if err != nil {
		if isNotFoundError(err) {
			return dtos.MailMessage{}, fmt.Errorf("%w: %s", ErrMessageUnavailable, id)
		}
		return dtos.MailMessage{}, err
	}
	return messageFromGmail(msg), nil
}

func messageFromGmail(msg *gmail.Message) dtos.MailMessage {
	var headers []*gmail.MessagePartHeader
	if msg.Payload != nil {
		headers = msg.Payload.Headers
	}
	return dtos.MailMessage{
		ID:      msg.Id,
		Sender:  headerValue(headers, "From"),
		Subject: headerValue(headers, "Subject"),
		Date:    headerValue(headers, "Date"),
		Snippet: msg.Snippet,
	}
}

// headerValue does a case-insensitive lookup; the first match wins.
func headerValue(headers []*gmail.MessagePartHeader, name string) string {
	for _, h := range headers {
		if h != nil && strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// retry executes a function with exponential backoff
func (s *GmailSource) retry(attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = f()
		if err == nil {
			return nil
		}
		// Missing messages and cancelled contexts will not recover
		if isNotFoundError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if i == attempts-1 {
			break
		}

		log.Printf("[gmail] ⚠️ API Error: %v. Retrying in %v...", err, sleep)
		s.pause(sleep)
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func (s *GmailSource) pause(d time.Duration) {
	if s.sleep == nil {
		time.Sleep(d)
		return
	}
	s.sleep(d)
}

func isNotFoundError(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
