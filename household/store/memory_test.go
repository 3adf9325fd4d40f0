package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/household/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertAssignment_ExistsOrInsert(t *testing.T) {
	// GIVEN: An assignment for room-1 in 2026-W42
	// WHEN: The same (room, period) is inserted again
	// THEN: The stored record is returned and nothing new is created

	s := store.NewMemory()
	ctx := context.Background()

	first, inserted, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-1", PeriodID: "2026-W42"})
	require.NoError(t, err)
	require.True(t, inserted)
	assert.NotZero(t, first.ID)

	again, inserted, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-1", PeriodID: "2026-W42"})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, again.ID)

	all, err := s.AssignmentsByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemory_LatestAssignment_HighestPeriodThenID(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	_, found, err := s.LatestAssignment(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	for _, a := range []household.ScheduleAssignment{
		{RoomID: "room-1", PeriodID: "2026-W43"},
		{RoomID: "room-2", PeriodID: "2026-W44"},
		{RoomID: "room-3", PeriodID: "2026-W44"},
		{RoomID: "room-1", PeriodID: "2026-W40"},
	} {
		_, _, err := s.InsertAssignment(ctx, a)
		require.NoError(t, err)
	}

	latest, found, err := s.LatestAssignment(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, household.RoomID("room-3"), latest.RoomID)
	assert.Equal(t, household.PeriodID("2026-W44"), latest.PeriodID)
}

func TestMemory_ReplaceAssignment(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	a, _, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-1", PeriodID: "2026-W42"})
	require.NoError(t, err)

	ok, err := s.ReplaceAssignment(ctx, a.WithTasks(household.TaskStates{Kitchen: true, Toilet: true}))
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := s.Assignment(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, household.TaskStates{Kitchen: true, Toilet: true}, got.Tasks)
	assert.Equal(t, household.PeriodID("2026-W42"), got.PeriodID)

	ok, err = s.ReplaceAssignment(ctx, household.ScheduleAssignment{ID: 999})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Rooms(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateRoom(ctx, household.Room{ID: "room-b", Name: "B"}))
	require.NoError(t, s.CreateRoom(ctx, household.Room{ID: "room-a", Name: "A"}))
	assert.ErrorIs(t, s.CreateRoom(ctx, household.Room{ID: "room-a"}), household.ErrDuplicateRoom)

	rooms, err := s.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, household.RoomID("room-a"), rooms[0].ID)
	assert.Equal(t, household.RoomID("room-b"), rooms[1].ID)

	ok, err := s.UpdateRoom(ctx, household.Room{ID: "room-a", Name: "Attic"})
	require.NoError(t, err)
	assert.True(t, ok)
	r, found, err := s.Room(ctx, "room-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Attic", r.Name)

	ok, err = s.DeleteRoom(ctx, "room-a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DeleteRoom(ctx, "room-a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_Costs_BySuffixAndBill(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	for _, c := range []household.CostEntry{
		household.NewCostEntry("2026-09", "room-1", decimal.NewFromInt(10)),
		household.NewCostEntry("2026-10", "room-1", decimal.NewFromInt(11)),
		household.NewCostEntry("2026-10", "room-11", decimal.NewFromInt(12)),
	} {
		_, inserted, err := s.InsertCost(ctx, c)
		require.NoError(t, err)
		require.True(t, inserted)
	}

	_, inserted, err := s.InsertCost(ctx, household.NewCostEntry("2026-10", "room-1", decimal.NewFromInt(99)))
	require.NoError(t, err)
	assert.False(t, inserted, "cost key is unique")

	byRoom, err := s.CostsByRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Len(t, byRoom, 2, "room-11 must not match room-1")

	byBill, err := s.CostsByBill(ctx, "2026-10")
	require.NoError(t, err)
	assert.Len(t, byBill, 2)
}

func TestMemory_WithBillingTx_RollsBackOnError(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: A transaction writes a bill and a cost, then fails
	// THEN: Neither write is visible afterwards

	s := store.NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithBillingTx(ctx, func(tx household.BillingStore) error {
		if _, err := tx.InsertBill(ctx, household.Bill{ID: "2026-10"}); err != nil {
			return err
		}
		if _, _, err := tx.InsertCost(ctx, household.NewCostEntry("2026-10", "room-1", decimal.Zero)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, found, err := s.Bill(ctx, "2026-10")
	require.NoError(t, err)
	assert.False(t, found)

	costs, err := s.CostsByBill(ctx, "2026-10")
	require.NoError(t, err)
	assert.Empty(t, costs)
}

func TestMemory_WithBillingTx_Commits(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	err := s.WithBillingTx(ctx, func(tx household.BillingStore) error {
		_, err := tx.InsertBill(ctx, household.Bill{ID: "2026-10", Media: decimal.NewFromInt(100)})
		return err
	})
	require.NoError(t, err)

	bill, found, err := s.Bill(ctx, "2026-10")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, bill.Media.Equal(decimal.NewFromInt(100)))
}

func TestMemory_Reset(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, s.CreateRoom(ctx, household.Room{ID: "room-1"}))
	_, err := s.InsertBill(ctx, household.Bill{ID: "2026-10"})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	rooms, err := s.Rooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)
	bills, err := s.Bills(ctx)
	require.NoError(t, err)
	assert.Empty(t, bills)
}
