package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/core/ranking"
	"github.com/dineshxr/submithunt/pkg/db"
)

// RankUpdateFailure records one submission whose rank could not be
// persisted during a run
type RankUpdateFailure struct {
	ID    string
	Title string
	Error string
}

// RankDayReport is the result of one daily ranking run
type RankDayReport struct {
	Date   string
	Ranked []ranking.RankedSubmission
	Failed []RankUpdateFailure
}

// Yesterday returns the previous calendar date relative to now in the
// scheduling timezone
func Yesterday(now time.Time, loc *time.Location) string {
	return model.Midnight(now, loc).AddDate(0, 0, -1).Format(model.DateFormat)
}

// RankDay ranks the launch cohort of a fully past calendar day and
// persists a dense rank per submission. An empty date ranks yesterday.
//
// A fetch failure aborts the run; a failure persisting one rank is
// logged, collected into the report, and does not stop the rest of the
// cohort. Re-running on the same closed day with unchanged votes yields
// identical ranks; ranks are simply overwritten, no history is kept.
func RankDay(ctx context.Context, store db.RankStore, logger *zap.Logger, now time.Time, loc *time.Location, date string) (*RankDayReport, error) {
	if date == "" {
		date = Yesterday(now, loc)
	}

	day, err := time.ParseInLocation(model.DateFormat, date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking date %q: %w", date, err)
	}

	// Ranking is retrospective: only fully past days get a rank
	if !day.Before(model.Midnight(now, loc)) {
		return nil, fmt.Errorf("cannot rank %s: the day is not over yet", date)
	}

	logger.Info("Ranking launch cohort", zap.String("date", date))

	cohort, err := store.GetLiveByLaunchDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch launch cohort for %s: %w", date, err)
	}

	report := &RankDayReport{Date: date}

	if len(cohort) == 0 {
		logger.Info("No live submissions to rank", zap.String("date", date))
		return report, nil
	}

	logger.Debug("Fetched launch cohort", zap.String("date", date), zap.Int("count", len(cohort)))

	report.Ranked = ranking.RankCohort(cohort)

	for _, r := range report.Ranked {
		if err := store.UpdateDailyRank(ctx, r.ID, r.Rank); err != nil {
			logger.Warn("Failed to persist daily rank",
				zap.String("id", r.ID),
				zap.String("title", r.Title),
				zap.Int("rank", r.Rank),
				zap.Error(err))

			report.Failed = append(report.Failed, RankUpdateFailure{
				ID:    r.ID,
				Title: r.Title,
				Error: err.Error(),
			})
			continue
		}

		logger.Debug("Rank persisted",
			zap.String("id", r.ID),
			zap.Int("rank", r.Rank),
			zap.Int("effective_votes", r.EffectiveVotes),
			zap.Int("actual_votes", r.ActualVotes))
	}

	logger.Info("Daily ranking completed",
		zap.String("date", date),
		zap.Int("ranked", len(report.Ranked)),
		zap.Int("update_failures", len(report.Failed)))

	return report, nil
}
