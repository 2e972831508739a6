package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/core/model"
	"github.com/dineshxr/submithunt/pkg/db"
)

// mockCountStore implements a test double for db.DateCountStore
type mockCountStore struct {
	counts         map[string]db.DateCounts
	aggregateErr   error
	fallbackErr    error
	aggregateCalls int
	fallbackCalls  int
}

func (m *mockCountStore) GetDateCounts(ctx context.Context, date string) (db.DateCounts, error) {
	m.aggregateCalls++
	if m.aggregateErr != nil {
		return db.DateCounts{}, m.aggregateErr
	}
	return m.counts[date], nil
}

func (m *mockCountStore) CountByDateFallback(ctx context.Context, date string) (db.DateCounts, error) {
	m.fallbackCalls++
	if m.fallbackErr != nil {
		return db.DateCounts{}, m.fallbackErr
	}
	return m.counts[date], nil
}

func newTestAllocator(t *testing.T, store db.DateCountStore) *Allocator {
	t.Helper()
	loc, err := model.LoadSchedulingLocation()
	require.NoError(t, err)
	return NewAllocator(store, zap.NewNop(), loc)
}

func TestAvailability_RemainingFormula(t *testing.T) {
	tests := []struct {
		name              string
		freeCount         int
		totalCount        int
		expectedRemaining int
	}{
		{"empty date", 0, 0, 6},
		{"partially filled", 2, 5, 4},
		{"one slot left", 5, 9, 1},
		{"exactly full", 6, 8, 0},
		{"over capacity never negative", 7, 12, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockCountStore{counts: map[string]db.DateCounts{
				"2025-03-19": {FreeCount: tt.freeCount, TotalCount: tt.totalCount},
			}}
			alloc := newTestAllocator(t, store)

			avail := alloc.Availability(context.Background(), "2025-03-19")
			assert.Equal(t, tt.expectedRemaining, avail.FreeRemaining)
			assert.Equal(t, tt.freeCount, avail.FreeCount)
			assert.Equal(t, tt.totalCount, avail.TotalCount)
		})
	}
}

func TestAvailability_FallbackPathAgreesWithPrimary(t *testing.T) {
	counts := map[string]db.DateCounts{
		"2025-03-19": {FreeCount: 3, TotalCount: 7},
	}

	primary := &mockCountStore{counts: counts}
	degraded := &mockCountStore{counts: counts, aggregateErr: errors.New("aggregate rpc missing")}

	viaPrimary := newTestAllocator(t, primary).Availability(context.Background(), "2025-03-19")
	viaFallback := newTestAllocator(t, degraded).Availability(context.Background(), "2025-03-19")

	// Both query paths must produce identical results on the same data
	assert.Equal(t, viaPrimary, viaFallback)
	assert.Equal(t, 1, degraded.aggregateCalls)
	assert.Equal(t, 1, degraded.fallbackCalls)
	assert.Equal(t, 0, primary.fallbackCalls)
}

func TestAvailability_BothPathsFailReturnsOptimisticDefault(t *testing.T) {
	store := &mockCountStore{
		aggregateErr: errors.New("connection refused"),
		fallbackErr:  errors.New("connection refused"),
	}
	alloc := newTestAllocator(t, store)

	avail := alloc.Availability(context.Background(), "2025-03-19")
	assert.Equal(t, Availability{FreeRemaining: FreeSlotCapacity, FreeCount: 0, TotalCount: 0}, avail)
}

func TestNextAvailableDates_SkipsWeekendsAndHonoursLeadTime(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{}}
	alloc := newTestAllocator(t, store)

	// Wednesday in the scheduling timezone
	now := time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC)

	slots, err := alloc.NextAvailableDates(context.Background(), now, 5, 30)
	require.NoError(t, err)
	require.Len(t, slots, 5)

	// Lead-time boundary date (exactly 7 days out) is included
	assert.Equal(t, "2025-03-19", slots[0].Date)
	expected := []string{"2025-03-19", "2025-03-20", "2025-03-21", "2025-03-24", "2025-03-25"}

	loc, err := model.LoadSchedulingLocation()
	require.NoError(t, err)
	earliest := model.Midnight(now, loc).AddDate(0, 0, LeadTimeDays)

	for i, slot := range slots {
		assert.Equal(t, expected[i], slot.Date)

		day, err := time.ParseInLocation(model.DateFormat, slot.Date, loc)
		require.NoError(t, err)
		assert.True(t, model.IsWeekday(day), "slot %s must be a weekday", slot.Date)
		assert.False(t, day.Before(earliest), "slot %s must be at least %d days out", slot.Date, LeadTimeDays)
		assert.True(t, slot.PremiumAvailable)
		assert.True(t, slot.FreeAvailable)
	}
}

func TestNextAvailableDates_LookaheadCapStopsScan(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{}}
	alloc := newTestAllocator(t, store)

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC) // Wednesday

	// Asking for far more dates than 7 scanned days can hold:
	// Wed 19th through Tue 25th contains five weekdays
	slots, err := alloc.NextAvailableDates(context.Background(), now, 100, 7)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
}

func TestNextAvailableDates_StartOnWeekendRollsToMonday(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{}}
	alloc := newTestAllocator(t, store)

	// Saturday; lead time lands on Saturday 2025-03-22
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	slots, err := alloc.NextAvailableDates(context.Background(), now, 3, 30)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "2025-03-24", slots[0].Date) // Monday
}

func TestNextAvailableDates_FlagsFullDates(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{
		"2025-03-19": {FreeCount: 6, TotalCount: 9},
		"2025-03-20": {FreeCount: 5, TotalCount: 5},
	}}
	alloc := newTestAllocator(t, store)

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	slots, err := alloc.NextAvailableDates(context.Background(), now, 2, 30)
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.False(t, slots[0].FreeAvailable)
	assert.Equal(t, 0, slots[0].FreeRemaining)
	assert.True(t, slots[0].PremiumAvailable, "paid plans always bypass the free ceiling")

	assert.True(t, slots[1].FreeAvailable)
	assert.Equal(t, 1, slots[1].FreeRemaining)
}

func TestNextAvailableDates_InvalidCount(t *testing.T) {
	alloc := newTestAllocator(t, &mockCountStore{})

	_, err := alloc.NextAvailableDates(context.Background(), time.Now(), 0, 30)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must be positive")
}

func TestRefresh_UpdatesCountsWithoutRescanning(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{
		"2025-03-19": {FreeCount: 5, TotalCount: 5},
		"2025-03-20": {FreeCount: 0, TotalCount: 0},
	}}
	alloc := newTestAllocator(t, store)

	now := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	slots, err := alloc.NextAvailableDates(context.Background(), now, 2, 30)
	require.NoError(t, err)
	require.True(t, slots[0].FreeAvailable)

	// Last slot on the 19th fills up between polls
	store.counts["2025-03-19"] = db.DateCounts{FreeCount: 6, TotalCount: 6}

	refreshed := alloc.Refresh(context.Background(), slots)
	require.Len(t, refreshed, len(slots))

	for i := range slots {
		assert.Equal(t, slots[i].Date, refreshed[i].Date, "refresh must not change the date sequence")
	}
	assert.False(t, refreshed[0].FreeAvailable, "caller needs the flipped flag to clear its selection")
	assert.Equal(t, 0, refreshed[0].FreeRemaining)
	assert.True(t, refreshed[1].FreeAvailable)
}

func TestSelectDate(t *testing.T) {
	store := &mockCountStore{counts: map[string]db.DateCounts{
		"2025-03-19": {FreeCount: 6, TotalCount: 8}, // full Wednesday
		"2025-03-20": {FreeCount: 2, TotalCount: 2}, // open Thursday
	}}
	alloc := newTestAllocator(t, store)
	ctx := context.Background()

	tests := []struct {
		name        string
		date        string
		plan        model.Plan
		expectedErr error
	}{
		{"free plan on open weekday", "2025-03-20", model.PlanFree, nil},
		{"free plan on full date", "2025-03-19", model.PlanFree, ErrSlotFull},
		{"premium bypasses full date", "2025-03-19", model.PlanPremium, nil},
		{"featured bypasses full date", "2025-03-19", model.PlanFeatured, nil},
		{"saturday rejected", "2025-03-22", model.PlanFree, ErrInvalidWeekday},
		{"sunday rejected even for premium", "2025-03-23", model.PlanPremium, ErrInvalidWeekday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := alloc.SelectDate(ctx, tt.date, tt.plan)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectDate_MalformedDate(t *testing.T) {
	alloc := newTestAllocator(t, &mockCountStore{})

	err := alloc.SelectDate(context.Background(), "19-03-2025", model.PlanFree)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid launch date")
}
