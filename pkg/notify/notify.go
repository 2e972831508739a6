// Package notify composes and dispatches launch-day emails. Actual
// delivery is delegated to an external transactional-email provider
// behind the EmailSender port.
package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/db"
)

// EmailSender delivers a single email. Implementations wrap the
// external transactional-email provider.
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// SentNotification records one launch email that went out
type SentNotification struct {
	SubmissionID string
	Slug         string
	Email        string
}

// FailedNotification records one launch email that could not be sent
type FailedNotification struct {
	SubmissionID string
	Slug         string
	Email        string
	Error        string
}

// SendLaunchEmails notifies authors whose submissions went live on the
// given date and have not been notified yet. Send failures are
// collected and do not stop the rest of the batch; the notification
// flag is only set for successful sends so failed ones are retried on
// the next run.
func SendLaunchEmails(
	ctx context.Context,
	store db.NotificationStore,
	sender EmailSender,
	logger *zap.Logger,
	now time.Time,
	date string,
	baseURL string,
) ([]SentNotification, []FailedNotification, error) {
	logger.Debug("Starting launch notifications", zap.String("date", date))

	pending, err := store.ListPendingLaunchNotifications(ctx, date)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch pending notifications for %s: %w", date, err)
	}

	if len(pending) == 0 {
		logger.Info("No launch notifications to send", zap.String("date", date))
		return []SentNotification{}, []FailedNotification{}, nil
	}

	logger.Debug("Found submissions needing launch emails", zap.Int("count", len(pending)))

	sent := []SentNotification{}
	failed := []FailedNotification{}

	for _, sub := range pending {
		subject, body := composeLaunchEmail(sub, baseURL)

		logger.Info("Sending launch email",
			zap.String("id", sub.ID),
			zap.String("slug", sub.Slug),
			zap.String("email", sub.AuthorEmail))

		if err := sender.SendEmail(sub.AuthorEmail, subject, body); err != nil {
			logger.Warn("Failed to send launch email",
				zap.String("id", sub.ID),
				zap.String("email", sub.AuthorEmail),
				zap.Error(err))

			failed = append(failed, FailedNotification{
				SubmissionID: sub.ID,
				Slug:         sub.Slug,
				Email:        sub.AuthorEmail,
				Error:        err.Error(),
			})
			continue
		}

		if err := store.MarkNotificationSent(ctx, sub.ID, now); err != nil {
			logger.Warn("Launch email sent but flag update failed, may resend",
				zap.String("id", sub.ID),
				zap.Error(err))
		}

		sent = append(sent, SentNotification{
			SubmissionID: sub.ID,
			Slug:         sub.Slug,
			Email:        sub.AuthorEmail,
		})
	}

	if len(failed) == len(pending) {
		return nil, nil, fmt.Errorf("all %d launch email send attempts failed", len(failed))
	}

	logger.Info("Launch notifications completed",
		zap.String("date", date),
		zap.Int("sent", len(sent)),
		zap.Int("failed", len(failed)))

	return sent, failed, nil
}

func composeLaunchEmail(sub db.Submission, baseURL string) (subject, body string) {
	subject = fmt.Sprintf("%s is live on SubmitHunt!", sub.Title)
	body = fmt.Sprintf(
		"Hey %s\n\n%s just went live:\n%s/startup/%s\n\nShare the link with your audience. Upvotes today decide tomorrow's ranking.\n\nThanks\nThe SubmitHunt team\n",
		sub.AuthorName, sub.Title, baseURL, sub.Slug)
	return subject, body
}

// LogSender is an EmailSender that records emails in the log instead of
// delivering them. Used when no provider is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) SendEmail(to, subject, body string) error {
	s.Logger.Info("Email (dry run)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
