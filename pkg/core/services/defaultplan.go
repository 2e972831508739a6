package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

// DefaultPlan returns the plan the submission form should preselect.
// A submitter with any prior submission is steered toward premium; they
// are never blocked from choosing free. Lookup failures quietly fall
// back to free, this is a UI nudge only.
func DefaultPlan(ctx context.Context, store db.SubmissionStore, logger *zap.Logger, email string) model.Plan {
	if email == "" {
		return model.PlanFree
	}

	hasPrior, err := store.HasSubmissionByAuthor(ctx, email)
	if err != nil {
		logger.Warn("Failed to check prior submissions, defaulting to free", zap.Error(err))
		return model.PlanFree
	}

	if hasPrior {
		return model.PlanPremium
	}
	return model.PlanFree
}
