package db

import (
	"time"

	"github.com/dineshxr/submithunt/pkg/core/model"
)

// Submission represents a startup record in the submissions table
type Submission struct {
	ID               string   `json:"id"`
	Slug             string   `json:"slug"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	URL              string   `json:"url"`
	Category         string   `json:"category"`
	Tags             []string `json:"tags"`
	AuthorName       string   `json:"author_name"`
	AuthorProfileURL string   `json:"author_profile_url,omitempty"`
	AuthorAvatarURL  string   `json:"author_avatar_url,omitempty"`
	AuthorEmail      string   `json:"author_email"`

	// LaunchDate is a calendar date (no time component) in the
	// scheduling timezone
	LaunchDate string     `json:"launch_date"`
	Plan       model.Plan `json:"plan"`
	IsLive     bool       `json:"is_live"`

	UpvoteCount int  `json:"upvote_count"`
	DailyRank   *int `json:"daily_rank,omitempty"`

	NotificationSent   bool       `json:"notification_sent"`
	NotificationSentAt *time.Time `json:"notification_sent_at,omitempty"`
	FeaturedUntil      *time.Time `json:"featured_until,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DateCounts holds per-launch-date submission counts used for
// slot availability
type DateCounts struct {
	FreeCount  int
	TotalCount int
}
