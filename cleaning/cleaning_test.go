package cleaning_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmate/household-engine/cleaning"
	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/household/store"
	"github.com/flatmate/household-engine/lock"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var weekly = household.WeeklyCodec{Location: time.UTC}

// Wednesday of 2026-W42.
var inW42 = time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

func newTestCalendar(t *testing.T, roomIDs ...household.RoomID) (*cleaning.Calendar, *store.Memory) {
	t.Helper()
	s := store.NewMemory()
	ctx := context.Background()
	for _, id := range roomIDs {
		require.NoError(t, s.CreateRoom(ctx, household.Room{ID: id, Name: "Room " + string(id)}))
	}

	rotation := cleaning.Rotation{Codec: weekly, InitialPeriod: "2026-W42"}
	ext := cleaning.NewExtender(s, s, rotation, lock.NewLocal(time.Second))
	cal := cleaning.NewCalendar(ext)
	cal.Now = func() time.Time { return inW42 }
	return cal, s
}

func periodsByRoom(t *testing.T, s *store.Memory, roomID household.RoomID) []household.PeriodID {
	t.Helper()
	assignments, err := s.AssignmentsByRoom(context.Background(), roomID)
	require.NoError(t, err)
	out := make([]household.PeriodID, len(assignments))
	for i, a := range assignments {
		out[i] = a.PeriodID
	}
	return out
}

// =============================================================================
// ROTATION
// =============================================================================

func TestRotation_WarmStart_StaggersByRoomIndex(t *testing.T) {
	rotation := cleaning.Rotation{Codec: weekly}
	latest := household.PeriodID("2026-W42")
	rooms := []household.Room{{ID: "room-c"}, {ID: "room-a"}, {ID: "room-b"}}

	got, err := rotation.Candidates(&latest, rooms, nil)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, household.ScheduleAssignment{RoomID: "room-a", PeriodID: "2026-W43"}, got[0])
	assert.Equal(t, household.ScheduleAssignment{RoomID: "room-b", PeriodID: "2026-W44"}, got[1])
	assert.Equal(t, household.ScheduleAssignment{RoomID: "room-c", PeriodID: "2026-W45"}, got[2])
}

func TestRotation_ColdStart_BeginsAtInitialPeriod(t *testing.T) {
	rotation := cleaning.Rotation{Codec: weekly, InitialPeriod: "2026-W52"}
	rooms := []household.Room{{ID: "room-a"}, {ID: "room-b"}, {ID: "room-c"}}

	got, err := rotation.Candidates(nil, rooms, nil)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, household.PeriodID("2026-W52"), got[0].PeriodID)
	assert.Equal(t, household.PeriodID("2026-W53"), got[1].PeriodID)
	assert.Equal(t, household.PeriodID("2027-W01"), got[2].PeriodID)
}

func TestRotation_SkipsOccupiedSlots(t *testing.T) {
	rotation := cleaning.Rotation{Codec: weekly}
	latest := household.PeriodID("2026-W42")
	rooms := []household.Room{{ID: "room-a"}, {ID: "room-b"}}
	occupied := map[cleaning.Slot]bool{{RoomID: "room-a", PeriodID: "2026-W43"}: true}

	got, err := rotation.Candidates(&latest, rooms, occupied)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, household.RoomID("room-b"), got[0].RoomID)
}

func TestRotation_NoRooms_NoCandidates(t *testing.T) {
	rotation := cleaning.Rotation{Codec: weekly, InitialPeriod: "2026-W42"}

	got, err := rotation.Candidates(nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRotation_InvalidLatest(t *testing.T) {
	rotation := cleaning.Rotation{Codec: weekly}
	latest := household.PeriodID("garbage")

	_, err := rotation.Candidates(&latest, []household.Room{{ID: "room-a"}}, nil)
	assert.ErrorIs(t, err, household.ErrInvalidPeriodID)
}

// =============================================================================
// EXTENDER
// =============================================================================

func TestExtender_ColdStart_ThenNoOpWhileCurrent(t *testing.T) {
	// GIVEN: Three rooms and an empty calendar
	// WHEN: The schedule is extended twice during 2026-W42
	// THEN: The first pass creates one turn per room, the second nothing

	cal, s := newTestCalendar(t, "room-a", "room-b", "room-c")
	ctx := context.Background()

	created, err := cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	created, err = cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	assert.Equal(t, []household.PeriodID{"2026-W42"}, periodsByRoom(t, s, "room-a"))
	assert.Equal(t, []household.PeriodID{"2026-W43"}, periodsByRoom(t, s, "room-b"))
	assert.Equal(t, []household.PeriodID{"2026-W44"}, periodsByRoom(t, s, "room-c"))
}

func TestExtender_ElapsedLatest_OneNewTurnPerRoom(t *testing.T) {
	// GIVEN: A first round ending with room-c in 2026-W44
	cal, s := newTestCalendar(t, "room-a", "room-b", "room-c")
	ctx := context.Background()
	_, err := cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)

	// WHEN: 2026-W44 has elapsed
	afterW44 := time.Date(2026, time.November, 2, 0, 0, 0, 0, time.UTC)
	created, err := cal.Extender.EnsureExtended(ctx, afterW44)
	require.NoError(t, err)

	// THEN: Each room gets exactly one later turn
	assert.Equal(t, 3, created)
	assert.Equal(t, []household.PeriodID{"2026-W42", "2026-W45"}, periodsByRoom(t, s, "room-a"))
	assert.Equal(t, []household.PeriodID{"2026-W43", "2026-W46"}, periodsByRoom(t, s, "room-b"))
	assert.Equal(t, []household.PeriodID{"2026-W44", "2026-W47"}, periodsByRoom(t, s, "room-c"))

	latest, found, err := s.LatestAssignment(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, household.PeriodID("2026-W47"), latest.PeriodID)
}

func TestExtender_SinglePassPerCall(t *testing.T) {
	// GIVEN: A calendar whose latest period ended long ago
	cal, s := newTestCalendar(t, "room-a", "room-b")
	ctx := context.Background()
	_, err := cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)

	// WHEN: Extending months later
	later := time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC)
	created, err := cal.Extender.EnsureExtended(ctx, later)
	require.NoError(t, err)

	// THEN: Only one round is added per call
	assert.Equal(t, 2, created)
	assert.Len(t, periodsByRoom(t, s, "room-a"), 2)
}

func TestExtender_NoRooms_NoAssignments(t *testing.T) {
	cal, s := newTestCalendar(t)
	ctx := context.Background()

	created, err := cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)
	assert.Zero(t, created)

	_, found, err := s.LatestAssignment(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExtender_ConcurrentCalls_NeverDuplicate(t *testing.T) {
	// GIVEN: Four rooms and an empty calendar
	// WHEN: Twenty callers extend at the same time
	// THEN: Exactly four assignments exist, one per room

	cal, s := newTestCalendar(t, "room-a", "room-b", "room-c", "room-d")
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	total := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := cal.Extender.EnsureExtended(ctx, inW42)
			assert.NoError(t, err)
			mu.Lock()
			total += created
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, total)
	for _, id := range []household.RoomID{"room-a", "room-b", "room-c", "room-d"} {
		assert.Len(t, periodsByRoom(t, s, id), 1, "room %s", id)
	}
}

func TestExtender_MembershipChange_RederivesRotation(t *testing.T) {
	// GIVEN: Two rooms with a first round (W42, W43)
	cal, s := newTestCalendar(t, "room-a", "room-c")
	ctx := context.Background()
	_, err := cal.Extender.EnsureExtended(ctx, inW42)
	require.NoError(t, err)

	// WHEN: room-b moves in and W43 elapses
	require.NoError(t, s.CreateRoom(ctx, household.Room{ID: "room-b", Name: "New"}))
	afterW43 := time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC)
	created, err := cal.Extender.EnsureExtended(ctx, afterW43)
	require.NoError(t, err)

	// THEN: The next round follows the current ordering a, b, c
	assert.Equal(t, 3, created)
	assert.Equal(t, []household.PeriodID{"2026-W42", "2026-W44"}, periodsByRoom(t, s, "room-a"))
	assert.Equal(t, []household.PeriodID{"2026-W45"}, periodsByRoom(t, s, "room-b"))
	assert.Equal(t, []household.PeriodID{"2026-W43", "2026-W46"}, periodsByRoom(t, s, "room-c"))
}

type timeoutLocker struct{}

func (timeoutLocker) Lock(context.Context, string) (lock.Unlock, error) {
	return nil, household.ErrLockTimeout
}

func TestExtender_LockTimeout_WritesNothing(t *testing.T) {
	cal, s := newTestCalendar(t, "room-a")
	cal.Extender.Locker = timeoutLocker{}

	_, err := cal.ForAll(context.Background())
	assert.ErrorIs(t, err, household.ErrLockTimeout)

	_, found, err := s.LatestAssignment(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// CALENDAR VIEW
// =============================================================================

func TestCalendar_ForAll_OrdersByPeriodDescending(t *testing.T) {
	// GIVEN: One room with turns inserted as periods [3, 1, 2]
	cal, s := newTestCalendar(t, "room-a")
	ctx := context.Background()
	for _, p := range []household.PeriodID{"2026-W03", "2026-W01", "2026-W02"} {
		_, _, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-a", PeriodID: p})
		require.NoError(t, err)
	}
	cal.Now = func() time.Time { return time.Date(2026, time.January, 14, 0, 0, 0, 0, time.UTC) }

	// WHEN: Reading the calendar while W03 is current
	views, err := cal.ForAll(ctx)
	require.NoError(t, err)

	// THEN: Most recent first
	require.Len(t, views, 3)
	assert.Equal(t, household.PeriodID("2026-W03"), views[0].PeriodID)
	assert.Equal(t, household.PeriodID("2026-W02"), views[1].PeriodID)
	assert.Equal(t, household.PeriodID("2026-W01"), views[2].PeriodID)
	assert.Equal(t, "Room room-a", views[0].RoomName)
	assert.Equal(t, time.Date(2026, time.January, 19, 0, 0, 0, 0, time.UTC), views[0].PeriodEnd)
	for _, v := range views {
		assert.False(t, v.Editable)
	}
}

func TestCalendar_ForAll_TiesBrokenByLargerIDFirst(t *testing.T) {
	cal, s := newTestCalendar(t, "room-a", "room-b")
	ctx := context.Background()
	first, _, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-b", PeriodID: "2026-W42"})
	require.NoError(t, err)
	second, _, err := s.InsertAssignment(ctx, household.ScheduleAssignment{RoomID: "room-a", PeriodID: "2026-W42"})
	require.NoError(t, err)

	views, err := cal.ForAll(ctx)
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, second.ID, views[0].ID)
	assert.Equal(t, first.ID, views[1].ID)
}

func TestCalendar_ForAll_EmptyStore(t *testing.T) {
	cal, _ := newTestCalendar(t)

	views, err := cal.ForAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestCalendar_ForAll_ExtendsFirst(t *testing.T) {
	cal, _ := newTestCalendar(t, "room-a", "room-b")

	views, err := cal.ForAll(context.Background())
	require.NoError(t, err)

	require.Len(t, views, 2)
	assert.Equal(t, household.PeriodID("2026-W43"), views[0].PeriodID)
	assert.Equal(t, household.RoomID("room-b"), views[0].RoomID)
}

func TestCalendar_ForRoom_MarksCallerEditable(t *testing.T) {
	cal, _ := newTestCalendar(t, "room-a", "room-b", "room-c")

	views, err := cal.ForRoom(context.Background(), "room-b")
	require.NoError(t, err)

	require.Len(t, views, 3)
	for _, v := range views {
		assert.Equal(t, v.RoomID == "room-b", v.Editable, "room %s", v.RoomID)
	}
}

func TestCalendar_ForRoom_UnknownCaller(t *testing.T) {
	cal, _ := newTestCalendar(t, "room-a")

	views, err := cal.ForRoom(context.Background(), "room-z")
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

// =============================================================================
// TASK STATES
// =============================================================================

func TestCalendar_SetTaskStates(t *testing.T) {
	cal, s := newTestCalendar(t, "room-a")
	ctx := context.Background()
	views, err := cal.ForAll(ctx)
	require.NoError(t, err)
	require.Len(t, views, 1)

	states := household.TaskStates{Kitchen: true, Bathroom: true, Toilet: true, LivingRoom: true}
	outcome, err := cal.SetTaskStates(ctx, views[0].ID, states)
	require.NoError(t, err)
	assert.Equal(t, household.OutcomeApplied, outcome)

	stored, found, err := s.Assignment(ctx, views[0].ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, stored.Tasks.Done())

	outcome, err = cal.SetTaskStates(ctx, views[0].ID, household.TaskStates{})
	require.NoError(t, err)
	assert.Equal(t, household.OutcomeApplied, outcome)
	stored, _, err = s.Assignment(ctx, views[0].ID)
	require.NoError(t, err)
	assert.Equal(t, household.TaskStates{}, stored.Tasks)
}

func TestCalendar_SetTaskStates_UnknownID(t *testing.T) {
	// GIVEN: A calendar with one assignment
	// WHEN: Updating an assignment that does not exist
	// THEN: NotFound is reported and stored data is unchanged

	cal, s := newTestCalendar(t, "room-a")
	ctx := context.Background()
	before, err := cal.ForAll(ctx)
	require.NoError(t, err)

	outcome, err := cal.SetTaskStates(ctx, 9999, household.TaskStates{Kitchen: true})
	require.NoError(t, err)
	assert.Equal(t, household.OutcomeNotFound, outcome)

	after, err := cal.ForAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	_, found, err := s.Assignment(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, found)
}
