package household_test

import (
	"testing"
	"time"

	"github.com/flatmate/household-engine/household"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// WEEKLY CODEC
// =============================================================================

func TestWeeklyCodec_ParseFormat_RoundTrip(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}

	key, err := codec.Parse("2026-W42")
	require.NoError(t, err)
	assert.Equal(t, int64(2962), key)

	id, err := codec.Format(key)
	require.NoError(t, err)
	assert.Equal(t, household.PeriodID("2026-W42"), id)
}

func TestWeeklyCodec_Offset_CrossesYearBoundary(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}

	tests := []struct {
		name string
		id   household.PeriodID
		n    int
		want household.PeriodID
	}{
		{"52-week year rolls over", "2025-W52", 1, "2026-W01"},
		{"53-week year keeps W53", "2026-W52", 1, "2026-W53"},
		{"after W53", "2026-W53", 1, "2027-W01"},
		{"backwards", "2026-W01", -1, "2025-W52"},
		{"zero", "2026-W10", 0, "2026-W10"},
		{"many", "2026-W42", 20, "2027-W09"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Offset(tt.id, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeeklyCodec_Offset_IsAdditive(t *testing.T) {
	// GIVEN: A starting week
	// WHEN: Offsetting by a then b, and by a+b
	// THEN: Both land on the same period

	codec := household.WeeklyCodec{Location: time.UTC}
	start := household.PeriodID("2024-W50")

	for a := -3; a <= 3; a++ {
		for b := -3; b <= 6; b++ {
			step, err := codec.Offset(start, a)
			require.NoError(t, err)
			twoSteps, err := codec.Offset(step, b)
			require.NoError(t, err)
			oneStep, err := codec.Offset(start, a+b)
			require.NoError(t, err)
			assert.Equal(t, oneStep, twoSteps, "a=%d b=%d", a, b)
		}
	}
}

func TestWeeklyCodec_Offset_IsMonotonic(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}

	prev, err := codec.Parse("2026-W40")
	require.NoError(t, err)
	for n := 1; n <= 80; n++ {
		id, err := codec.Offset("2026-W40", n)
		require.NoError(t, err)
		key, err := codec.Parse(id)
		require.NoError(t, err)
		assert.Greater(t, key, prev)
		prev = key
	}
}

func TestWeeklyCodec_EndOf_IsNextMonday(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}

	start, err := codec.Start("2026-W42")
	require.NoError(t, err)
	end, err := codec.EndOf("2026-W42")
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), end)
}

func TestWeeklyCodec_IsCurrent_BoundaryIsExclusive(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}
	end := time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)

	current, err := codec.IsCurrent("2026-W42", end.Add(-time.Nanosecond))
	require.NoError(t, err)
	assert.True(t, current)

	current, err = codec.IsCurrent("2026-W42", end)
	require.NoError(t, err)
	assert.False(t, current, "a period is elapsed once now reaches its end")
}

func TestWeeklyCodec_Location_ShiftsBoundary(t *testing.T) {
	// GIVEN: A codec two hours east of UTC
	codec := household.WeeklyCodec{Location: time.FixedZone("CEST", 2*60*60)}

	// WHEN: It is Sunday 23:30 UTC, already Monday locally
	now := time.Date(2026, time.October, 18, 23, 30, 0, 0, time.UTC)

	// THEN: W42 has elapsed and the containing period is W43
	current, err := codec.IsCurrent("2026-W42", now)
	require.NoError(t, err)
	assert.False(t, current)
	assert.Equal(t, household.PeriodID("2026-W43"), codec.Containing(now))
}

func TestWeeklyCodec_Parse_RejectsMalformed(t *testing.T) {
	codec := household.WeeklyCodec{Location: time.UTC}

	for _, id := range []household.PeriodID{
		"",
		"2026-W1",
		"2026W042",
		"2026-w42",
		"2026-W00",
		"2025-W53",
		"abcd-W01",
		"2026-W+1",
		"0999-W10",
		"2026-10",
	} {
		t.Run(string(id), func(t *testing.T) {
			_, err := codec.Parse(id)
			require.Error(t, err)
			assert.ErrorIs(t, err, household.ErrInvalidPeriodID)

			var perr *household.InvalidPeriodError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, id, perr.ID)
		})
	}
}

// =============================================================================
// MONTHLY CODEC
// =============================================================================

func TestMonthlyCodec_Offset(t *testing.T) {
	codec := household.MonthlyCodec{Location: time.UTC}

	tests := []struct {
		id   household.PeriodID
		n    int
		want household.PeriodID
	}{
		{"2025-12", 1, "2026-01"},
		{"2026-01", -1, "2025-12"},
		{"2026-10", 14, "2027-12"},
		{"2026-10", -22, "2024-12"},
	}

	for _, tt := range tests {
		got, err := codec.Offset(tt.id, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s%+d", tt.id, tt.n)
	}
}

func TestMonthlyCodec_EndOf(t *testing.T) {
	codec := household.MonthlyCodec{Location: time.UTC}

	end, err := codec.EndOf("2026-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), end)

	end, err = codec.EndOf("2026-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestMonthlyCodec_YearMonth(t *testing.T) {
	codec := household.MonthlyCodec{}

	year, month, err := codec.YearMonth("2026-10")
	require.NoError(t, err)
	assert.Equal(t, 2026, year)
	assert.Equal(t, time.October, month)
}

func TestMonthlyCodec_Parse_RejectsMalformed(t *testing.T) {
	codec := household.MonthlyCodec{}

	for _, id := range []household.PeriodID{"2026-13", "2026-00", "2026-1", "2026/10", "2026-+1", "2026-W42"} {
		_, err := codec.Parse(id)
		assert.ErrorIs(t, err, household.ErrInvalidPeriodID, "id %q", id)
	}
}

func TestNewCodec(t *testing.T) {
	weekly, err := household.NewCodec("", nil)
	require.NoError(t, err)
	assert.Equal(t, household.KindWeekly, weekly.Kind())

	monthly, err := household.NewCodec(household.KindMonthly, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, household.KindMonthly, monthly.Kind())

	_, err = household.NewCodec("daily", nil)
	assert.Error(t, err)
}
