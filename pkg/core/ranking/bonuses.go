package ranking

import "github.com/dineshxr/submithunt/pkg/core/model"

// Ranking bonuses applied on top of raw upvote counts
const (
	// BonusPaidPlan is added for premium and featured submissions
	BonusPaidPlan = 1
)

// positionBonuses maps creation-order position within a day's cohort to
// bonus votes. Only the earliest submitters of the day get a bonus; the
// table is ordered, position 0 first.
var positionBonuses = []int{2, 1}

// PlanBonus returns the bonus votes for a submission's plan tier
func PlanBonus(plan model.Plan) int {
	if plan.IsPaid() {
		return BonusPaidPlan
	}
	return 0
}

// PositionBonus returns the bonus votes for a submission's creation
// order within its cohort. Positions beyond the table get nothing.
func PositionBonus(position int) int {
	if position >= 0 && position < len(positionBonuses) {
		return positionBonuses[position]
	}
	return 0
}

// EffectiveVotes computes the score a submission is ranked by. It is
// never shown as the real vote count.
func EffectiveVotes(upvotes int, plan model.Plan, position int) int {
	return upvotes + PlanBonus(plan) + PositionBonus(position)
}
