package db

import (
	"context"
	"time"

	"github.com/dineshxr/submithunt/pkg/core/model"
)

// DateCountStore defines the read operations the slot allocator needs
type DateCountStore interface {
	// GetDateCounts computes free and total counts for a launch date
	// in a single aggregate query
	GetDateCounts(ctx context.Context, date string) (DateCounts, error)
	// CountByDateFallback computes the same counts via two plain count
	// queries. Exists purely for resilience when the aggregate path
	// fails; both paths must agree on the same data.
	CountByDateFallback(ctx context.Context, date string) (DateCounts, error)
}

// RankStore defines the database operations needed by the daily ranker
type RankStore interface {
	GetLiveByLaunchDate(ctx context.Context, date string) ([]Submission, error)
	UpdateDailyRank(ctx context.Context, id string, rank int) error
}

// SubmissionStore defines the operations needed to create and upgrade
// submissions
type SubmissionStore interface {
	// InsertSubmission inserts a submission, returning ErrSlugTaken on
	// a slug collision
	InsertSubmission(ctx context.Context, sub *Submission) error
	// ClaimFreeSlot inserts a free-plan submission only while the
	// launch date's free count is below capacity. Returns
	// ErrNoFreeCapacity when the date is full. This is the
	// authoritative write-time ceiling; client-side availability is
	// advisory only.
	ClaimFreeSlot(ctx context.Context, sub *Submission, capacity int) error
	HasSubmissionByAuthor(ctx context.Context, email string) (bool, error)
	GetBySlug(ctx context.Context, slug string) (*Submission, error)
	// ApplyUpgrade flips a submission's plan after a successful
	// payment: sets plan and launch date, marks it live, clears the
	// notification flag, and sets featured_until for featured plans.
	ApplyUpgrade(ctx context.Context, id string, plan model.Plan, launchDate string, featuredUntil *time.Time) (*Submission, error)
}

// NotificationStore defines the operations needed to send launch
// notifications
type NotificationStore interface {
	ListPendingLaunchNotifications(ctx context.Context, date string) ([]Submission, error)
	MarkNotificationSent(ctx context.Context, id string, at time.Time) error
}
