package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

// featuredPlacementDays is how long a featured placement runs before
// its recurring renewal
const featuredPlacementDays = 30

// PaymentUpgrade is the payload of a successful payment webhook
type PaymentUpgrade struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	Plan         string `json:"plan" validate:"required,oneof=premium featured"`
	LaunchDate   string `json:"launch_date" validate:"omitempty,datetime=2006-01-02"`
}

// ApplyPaymentUpgrade is the authoritative moment a paid slot is
// claimed: it flips the submission's plan, moves the launch date when
// the payload carries one, marks the record live, and clears the
// notification flag. Paid plans bypass the free slot ceiling entirely.
func ApplyPaymentUpgrade(ctx context.Context, store db.SubmissionStore, logger *zap.Logger, now time.Time, upgrade PaymentUpgrade) (*db.Submission, error) {
	if err := validate.Struct(&upgrade); err != nil {
		return nil, fmt.Errorf("payment upgrade validation failed: %w", err)
	}

	plan, err := model.ParsePlan(upgrade.Plan)
	if err != nil {
		return nil, err
	}

	var featuredUntil *time.Time
	if plan == model.PlanFeatured {
		until := now.AddDate(0, 0, featuredPlacementDays)
		featuredUntil = &until
	}

	logger.Info("Applying payment upgrade",
		zap.String("id", upgrade.SubmissionID),
		zap.String("plan", string(plan)),
		zap.String("launch_date", upgrade.LaunchDate))

	sub, err := store.ApplyUpgrade(ctx, upgrade.SubmissionID, plan, upgrade.LaunchDate, featuredUntil)
	if err != nil {
		return nil, fmt.Errorf("failed to apply payment upgrade to %s: %w", upgrade.SubmissionID, err)
	}

	logger.Info("Payment upgrade applied",
		zap.String("id", sub.ID),
		zap.String("slug", sub.Slug),
		zap.String("plan", string(sub.Plan)))

	return sub, nil
}
