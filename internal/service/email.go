package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendMagicLinkEmail(email, token, name string) error {
	magicURL := fmt.Sprintf("%s/auth/magic-link/%s", s.appURL, token)
	subject := fmt.Sprintf("Sign in to %s", s.appName)
	body := fmt.Sprintf("Click the link to sign in:\n\n%s\n\nThe link expires in a few minutes. If you didn't request it, you can ignore this email.", magicURL)

	return s.send("magic_link", email, subject, body)
}

func (s *EmailService) SendForgotPasswordEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/auth/forgot-password/%s", s.appURL, token)
	subject := fmt.Sprintf("Reset your %s password", s.appName)
	body := fmt.Sprintf("Click the link to reset your password:\n\n%s\n\nIf you didn't request it, you can ignore this email.", resetURL)

	return s.send("forgot_password", email, subject, body)
}

// SendPromiseExpiredEmail notifies the user that a locked promise expired
// unmet and was auto-marked broken. Sent once, by the session whose sweep
// won the compare-and-set.
func (s *EmailService) SendPromiseExpiredEmail(email, milestoneTitle string, deadline time.Time) error {
	subject := fmt.Sprintf("Your promise \"%s\" expired", milestoneTitle)
	body := fmt.Sprintf(
		"The deadline for \"%s\" (%s) passed without the promise being kept.\n\nIt now counts as broken. Open %s to reflect on what happened. You can't lock a new promise until you do.",
		milestoneTitle, deadline.Format(time.RFC1123), s.appURL,
	)

	return s.send("promise_expired", email, subject, body)
}

func (s *EmailService) send(emailType, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}
