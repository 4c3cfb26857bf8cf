package service

import (
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService handles newsletter signups via Resend. In development the
// service logs instead of calling the API.
type EmailService struct {
	client     *resend.Client
	fromEmail  string
	audienceID string
	isDev      bool
}

func NewEmailService(apiKey, fromEmail, audienceID string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		audienceID: audienceID,
		isDev:      isDev,
	}
}

func (s *EmailService) SubscribeNewsletter(email string) error {
	if s.isDev {
		slog.Info("newsletter subscription (dev mode)", "email", email)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	if s.audienceID == "" {
		slog.Warn("newsletter subscription requested but no audience configured", "email", email)
		return nil
	}

	params := &resend.CreateContactRequest{
		Email:      email,
		AudienceId: s.audienceID,
	}

	_, err := s.client.Contacts.Create(params)
	if err != nil {
		// Ignore errors to prevent email enumeration; this covers
		// duplicates, invalid addresses, and API outages alike.
		slog.Warn("newsletter subscription failed", "error", err, "email", email)
		return nil
	}

	slog.Info("newsletter subscription successful", "email", email)
	return nil
}
