package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

const (
	// FreeSlotCapacity is the hard ceiling of free-plan submissions
	// sharing one launch date. Enforced authoritatively at write time;
	// counts computed here are advisory.
	FreeSlotCapacity = 6

	// LeadTimeDays is the onboarding lead time: the earliest offered
	// launch date is this many days out. The boundary date itself is a
	// valid candidate.
	LeadTimeDays = 7

	// DefaultLookaheadDays caps how many calendar days ahead the date
	// picker scans
	DefaultLookaheadDays = 30

	labelFormat = "Monday, Jan 2"
)

var (
	// ErrSlotFull rejects a free-plan date with no remaining capacity
	ErrSlotFull = errors.New("no free slots remaining for this date")

	// ErrInvalidWeekday rejects weekend launch dates
	ErrInvalidWeekday = errors.New("launch dates must fall on a weekday")
)

// Availability is the capacity picture for one launch date
type Availability struct {
	FreeRemaining int `json:"free_remaining"`
	FreeCount     int `json:"free_count"`
	TotalCount    int `json:"total_count"`
}

// DateSlot is one candidate launch date offered to the submission form
type DateSlot struct {
	Date             string `json:"date"`
	Label            string `json:"label"`
	FreeAvailable    bool   `json:"free_available"`
	PremiumAvailable bool   `json:"premium_available"`
	FreeRemaining    int    `json:"free_remaining"`
	FreeCount        int    `json:"free_count"`
	TotalCount       int    `json:"total_count"`
}

// Allocator answers whether launch dates are open for new submissions.
// It is stateless: callers wanting fresh counts simply call it again.
type Allocator struct {
	store  db.DateCountStore
	logger *zap.Logger
	loc    *time.Location
}

// NewAllocator creates a slot allocator over the given count store.
// loc is the scheduling timezone; "today" and "weekday" are decided in
// it, never in UTC.
func NewAllocator(store db.DateCountStore, logger *zap.Logger, loc *time.Location) *Allocator {
	return &Allocator{
		store:  store,
		logger: logger,
		loc:    loc,
	}
}

// Availability computes remaining free capacity for a launch date.
// It never returns an error: if the aggregate query fails it falls back
// to direct counts, and if both paths fail it reports the date as fully
// open. A wrong optimistic answer only affects the advisory picker; the
// write-time ceiling still holds.
func (a *Allocator) Availability(ctx context.Context, date string) Availability {
	counts, err := a.store.GetDateCounts(ctx, date)
	if err != nil {
		a.logger.Warn("Aggregate count query failed, falling back to direct counts",
			zap.String("date", date),
			zap.Error(err))

		counts, err = a.store.CountByDateFallback(ctx, date)
		if err != nil {
			a.logger.Warn("Fallback count query failed, assuming date is open",
				zap.String("date", date),
				zap.Error(err))
			return Availability{FreeRemaining: FreeSlotCapacity}
		}
	}

	remaining := FreeSlotCapacity - counts.FreeCount
	if remaining < 0 {
		remaining = 0
	}

	return Availability{
		FreeRemaining: remaining,
		FreeCount:     counts.FreeCount,
		TotalCount:    counts.TotalCount,
	}
}

// NextAvailableDates walks weekdays starting LeadTimeDays from now and
// returns up to count candidate slots, scanning at most lookaheadDays
// calendar days. Weekends are never candidates. Each call rescans from
// the start.
func (a *Allocator) NextAvailableDates(ctx context.Context, now time.Time, count, lookaheadDays int) ([]DateSlot, error) {
	if count <= 0 {
		return nil, fmt.Errorf("date count must be positive, got %d", count)
	}
	if lookaheadDays <= 0 {
		lookaheadDays = DefaultLookaheadDays
	}

	start := model.Midnight(now, a.loc).AddDate(0, 0, LeadTimeDays)
	end := start.AddDate(0, 0, lookaheadDays-1)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   start,
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build launch calendar rule: %w", err)
	}

	slots := []DateSlot{}
	for _, day := range r.Between(start, end, true) {
		if len(slots) >= count {
			break
		}

		date := day.Format(model.DateFormat)
		avail := a.Availability(ctx, date)

		slots = append(slots, DateSlot{
			Date:             date,
			Label:            day.Format(labelFormat),
			FreeAvailable:    avail.FreeRemaining > 0,
			PremiumAvailable: true,
			FreeRemaining:    avail.FreeRemaining,
			FreeCount:        avail.FreeCount,
			TotalCount:       avail.TotalCount,
		})
	}

	a.logger.Debug("Computed next available dates",
		zap.Int("requested", count),
		zap.Int("returned", len(slots)),
		zap.String("from", start.Format(model.DateFormat)))

	return slots, nil
}

// Refresh re-queries availability for an already-computed slot sequence
// without rescanning for new dates. Callers holding a free-plan
// selection must clear it when its FreeAvailable flips to false.
func (a *Allocator) Refresh(ctx context.Context, slots []DateSlot) []DateSlot {
	refreshed := make([]DateSlot, len(slots))
	for i, slot := range slots {
		avail := a.Availability(ctx, slot.Date)

		slot.FreeAvailable = avail.FreeRemaining > 0
		slot.FreeRemaining = avail.FreeRemaining
		slot.FreeCount = avail.FreeCount
		slot.TotalCount = avail.TotalCount
		refreshed[i] = slot
	}
	return refreshed
}

// SelectDate is the advisory pre-flight check for claiming a launch
// date. Free plans are rejected with ErrSlotFull when no capacity
// remains; weekends are rejected for every plan. Acceptance here does
// not guarantee the write succeeds: concurrent selections can race
// between this check and the insert, and the store's conditional claim
// is the authority.
func (a *Allocator) SelectDate(ctx context.Context, date string, plan model.Plan) error {
	day, err := time.ParseInLocation(model.DateFormat, date, a.loc)
	if err != nil {
		return fmt.Errorf("invalid launch date %q: %w", date, err)
	}

	if !model.IsWeekday(day) {
		return ErrInvalidWeekday
	}

	if plan == model.PlanFree {
		if avail := a.Availability(ctx, date); avail.FreeRemaining <= 0 {
			return ErrSlotFull
		}
	}

	return nil
}
