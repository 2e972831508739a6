package model

import (
	"fmt"
	"time"
)

// SchedulingTimezone is the business launch-schedule timezone. All
// "today" and "weekday" decisions are made in this zone, never in UTC.
const SchedulingTimezone = "America/New_York"

// DateFormat is the calendar-date layout used for launch dates
const DateFormat = "2006-01-02"

type Plan string

const (
	PlanFree     Plan = "free"
	PlanPremium  Plan = "premium"
	PlanFeatured Plan = "featured"
)

func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanPremium || p == PlanFeatured
}

// IsPaid reports whether the plan bypasses the free slot ceiling
func (p Plan) IsPaid() bool {
	return p == PlanPremium || p == PlanFeatured
}

// ParsePlan parses a plan string, rejecting unknown tiers
func ParsePlan(s string) (Plan, error) {
	p := Plan(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown plan %q", s)
	}
	return p, nil
}

// LoadSchedulingLocation loads the fixed scheduling timezone
func LoadSchedulingLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(SchedulingTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduling timezone: %w", err)
	}
	return loc, nil
}

// Midnight truncates t to the start of its calendar day in loc
func Midnight(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// IsWeekday reports whether t falls on Monday through Friday
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
