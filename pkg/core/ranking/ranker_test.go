package ranking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

func cohortSubmission(id string, votes int, plan model.Plan, createdAt time.Time) db.Submission {
	return db.Submission{
		ID:          id,
		Title:       "Startup " + id,
		UpvoteCount: votes,
		Plan:        plan,
		CreatedAt:   createdAt,
	}
}

func TestRankCohort_SubmissionOrderBonuses(t *testing.T) {
	base := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)

	// Creation order [A, B, C], all free, votes [10, 10, 5]
	cohort := []db.Submission{
		cohortSubmission("A", 10, model.PlanFree, base),
		cohortSubmission("B", 10, model.PlanFree, base.Add(time.Hour)),
		cohortSubmission("C", 5, model.PlanFree, base.Add(2*time.Hour)),
	}

	ranked := RankCohort(cohort)
	require.Len(t, ranked, 3)

	// A=10+2, B=10+1, C=5
	assert.Equal(t, "A", ranked[0].ID)
	assert.Equal(t, 12, ranked[0].EffectiveVotes)
	assert.Equal(t, 1, ranked[0].Rank)

	assert.Equal(t, "B", ranked[1].ID)
	assert.Equal(t, 11, ranked[1].EffectiveVotes)
	assert.Equal(t, 2, ranked[1].Rank)

	assert.Equal(t, "C", ranked[2].ID)
	assert.Equal(t, 5, ranked[2].EffectiveVotes)
	assert.Equal(t, 3, ranked[2].Rank)

	// Raw votes are reported untouched
	assert.Equal(t, 10, ranked[0].ActualVotes)
	assert.Equal(t, 0, ranked[0].SubmissionOrder)
	assert.Equal(t, 1, ranked[1].SubmissionOrder)
}

func TestRankCohort_TieBrokenByCreationTime(t *testing.T) {
	base := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)

	// A free, B premium; both land on effective 7:
	// A = 5 + 2 (first), B = 5 + 1 (premium) + 1 (second)
	cohort := []db.Submission{
		cohortSubmission("A", 5, model.PlanFree, base),
		cohortSubmission("B", 5, model.PlanPremium, base.Add(time.Minute)),
	}

	ranked := RankCohort(cohort)
	require.Len(t, ranked, 2)

	assert.Equal(t, 7, ranked[0].EffectiveVotes)
	assert.Equal(t, 7, ranked[1].EffectiveVotes)

	// Earlier creation wins the tie
	assert.Equal(t, "A", ranked[0].ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "B", ranked[1].ID)
	assert.Equal(t, 2, ranked[1].Rank)
}

func TestRankCohort_IdenticalTimestampsFallBackToID(t *testing.T) {
	at := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)

	cohort := []db.Submission{
		cohortSubmission("zzz", 3, model.PlanFree, at),
		cohortSubmission("aaa", 4, model.PlanFree, at),
	}
	// Effective: zzz = 3+2 = 5, aaa = 4+1 = 5

	ranked := RankCohort(cohort)
	require.Len(t, ranked, 2)
	assert.Equal(t, "aaa", ranked[0].ID)
	assert.Equal(t, "zzz", ranked[1].ID)
}

func TestRankCohort_DenseRanks(t *testing.T) {
	base := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)

	cohort := make([]db.Submission, 5)
	for i := range cohort {
		cohort[i] = cohortSubmission(string(rune('A'+i)), 20-i, model.PlanFree, base.Add(time.Duration(i)*time.Minute))
	}

	ranked := RankCohort(cohort)
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank, "ranks must be dense with no gaps")
	}
}

func TestRankCohort_Deterministic(t *testing.T) {
	base := time.Date(2025, 3, 18, 8, 0, 0, 0, time.UTC)

	cohort := []db.Submission{
		cohortSubmission("A", 5, model.PlanFree, base),
		cohortSubmission("B", 5, model.PlanPremium, base.Add(time.Minute)),
		cohortSubmission("C", 8, model.PlanFeatured, base.Add(2*time.Minute)),
		cohortSubmission("D", 0, model.PlanFree, base.Add(3*time.Minute)),
	}

	first := RankCohort(cohort)
	second := RankCohort(cohort)
	assert.Equal(t, first, second, "same inputs must produce identical rankings")
}

func TestRankCohort_Empty(t *testing.T) {
	ranked := RankCohort([]db.Submission{})
	assert.Empty(t, ranked)
}

func TestPositionBonus(t *testing.T) {
	tests := []struct {
		position int
		expected int
	}{
		{0, 2},
		{1, 1},
		{2, 0},
		{10, 0},
		{-1, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, PositionBonus(tt.position), "position %d", tt.position)
	}
}

func TestPlanBonus(t *testing.T) {
	assert.Equal(t, 0, PlanBonus(model.PlanFree))
	assert.Equal(t, 1, PlanBonus(model.PlanPremium))
	assert.Equal(t, 1, PlanBonus(model.PlanFeatured))
}
