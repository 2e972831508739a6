package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/core/scheduling"
	"github.com/dineshxr/submithunt/pkg/db"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ErrDateJustFilled surfaces a race lost between the advisory date
// picker and the authoritative write: the selected date filled up in
// between. Distinct from the advisory ErrSlotFull so the form can show
// a "pick another date" message at submit time.
var ErrDateJustFilled = errors.New("this launch date just filled up, please pick another")

// SubmitRequest is the validated input of the multi-step submission form
type SubmitRequest struct {
	Title            string   `json:"title" validate:"required,max=120"`
	Description      string   `json:"description" validate:"required,max=2000"`
	URL              string   `json:"url" validate:"required,url"`
	Category         string   `json:"category" validate:"required"`
	Tags             []string `json:"tags" validate:"max=10,dive,required"`
	AuthorName       string   `json:"author_name" validate:"required"`
	AuthorProfileURL string   `json:"author_profile_url" validate:"omitempty,url"`
	AuthorAvatarURL  string   `json:"author_avatar_url" validate:"omitempty,url"`
	AuthorEmail      string   `json:"author_email" validate:"required,email"`
	LaunchDate       string   `json:"launch_date" validate:"required,datetime=2006-01-02"`
	Plan             string   `json:"plan" validate:"required,oneof=free premium featured"`
}

// SubmitStartup validates and persists a new submission. Free plans go
// through the store's conditional slot claim, so a date that filled up
// since the advisory check is rejected here with ErrDateJustFilled.
// A slug collision triggers a regeneration-with-suffix retry exactly
// once. Paid submissions are created not-live: they go live when the
// payment webhook lands.
func SubmitStartup(ctx context.Context, store db.SubmissionStore, allocator *scheduling.Allocator, logger *zap.Logger, now time.Time, req SubmitRequest) (*db.Submission, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("submission validation failed: %w", err)
	}

	plan, err := model.ParsePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	// Advisory pre-flight: weekday rule plus free capacity
	if err := allocator.SelectDate(ctx, req.LaunchDate, plan); err != nil {
		return nil, err
	}

	baseSlug := Slugify(req.Title)
	sub := &db.Submission{
		ID:               uuid.New().String(),
		Slug:             baseSlug,
		Title:            req.Title,
		Description:      req.Description,
		URL:              req.URL,
		Category:         req.Category,
		Tags:             req.Tags,
		AuthorName:       req.AuthorName,
		AuthorProfileURL: req.AuthorProfileURL,
		AuthorAvatarURL:  req.AuthorAvatarURL,
		AuthorEmail:      req.AuthorEmail,
		LaunchDate:       req.LaunchDate,
		Plan:             plan,
		IsLive:           plan == model.PlanFree,
		CreatedAt:        now,
	}

	logger.Info("Creating submission",
		zap.String("id", sub.ID),
		zap.String("slug", sub.Slug),
		zap.String("launch_date", sub.LaunchDate),
		zap.String("plan", string(plan)))

	err = insertSubmission(ctx, store, sub)
	if errors.Is(err, db.ErrSlugTaken) {
		sub.Slug = fmt.Sprintf("%s-%s", baseSlug, uuid.New().String()[:8])
		logger.Debug("Slug collision, retrying with suffix", zap.String("slug", sub.Slug))
		err = insertSubmission(ctx, store, sub)
	}

	if err != nil {
		if errors.Is(err, db.ErrNoFreeCapacity) {
			logger.Info("Free slot claim lost a race",
				zap.String("launch_date", sub.LaunchDate))
			return nil, ErrDateJustFilled
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	logger.Info("Submission created", zap.String("id", sub.ID), zap.String("slug", sub.Slug))

	return sub, nil
}

func insertSubmission(ctx context.Context, store db.SubmissionStore, sub *db.Submission) error {
	if sub.Plan == model.PlanFree {
		return store.ClaimFreeSlot(ctx, sub, scheduling.FreeSlotCapacity)
	}
	return store.InsertSubmission(ctx, sub)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a title
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "startup"
	}
	return slug
}
