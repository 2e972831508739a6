package ranking

import (
	"sort"
	"time"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

// RankedSubmission is one row of a daily ranking run
type RankedSubmission struct {
	ID              string
	Title           string
	Rank            int
	EffectiveVotes  int
	ActualVotes     int
	Plan            model.Plan
	SubmissionOrder int
	CreatedAt       time.Time
}

// RankCohort assigns dense ranks 1..N over one launch day's cohort.
// The input must be ordered by creation time ascending: submission-order
// bonuses are keyed by position in that order.
//
// Sorting is total and deterministic: effective votes descending, then
// creation time ascending (earlier submission wins ties), then id
// ascending for identical timestamps. Pure function, no I/O.
func RankCohort(cohort []db.Submission) []RankedSubmission {
	ranked := make([]RankedSubmission, len(cohort))
	for i, sub := range cohort {
		ranked[i] = RankedSubmission{
			ID:              sub.ID,
			Title:           sub.Title,
			EffectiveVotes:  EffectiveVotes(sub.UpvoteCount, sub.Plan, i),
			ActualVotes:     sub.UpvoteCount,
			Plan:            sub.Plan,
			SubmissionOrder: i,
			CreatedAt:       sub.CreatedAt,
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].EffectiveVotes != ranked[j].EffectiveVotes {
			return ranked[i].EffectiveVotes > ranked[j].EffectiveVotes
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
