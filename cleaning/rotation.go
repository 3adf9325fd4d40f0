/*
Package cleaning keeps the household's cleaning calendar populated.

PURPOSE:
  Every room gets one cleaning turn per period. When the latest turn on
  the calendar has elapsed, the next round is created: one new turn per
  room, each room one period further than the room before it. Nothing runs
  in the background. Reading the calendar triggers the extension.

KEY CONCEPTS:
  Rotation:  pure computation of the next round of assignments
  Extender:  lock + read latest + compute + exists-or-insert
  Calendar:  read views (everyone / one room) and task-state updates

ROTATION RULE:
  Rooms are ordered by ID on every pass (no cached index), so membership
  changes are picked up the next time the calendar grows.

    warm start: room i gets Offset(latest, i+1)
    cold start: room i gets Offset(initial, i)

  Example with three rooms and latest = 2026-W42:

    room-a -> 2026-W43
    room-b -> 2026-W44
    room-c -> 2026-W45

  The next pass happens once 2026-W45 (the new latest) has elapsed.

SEE ALSO:
  - household/period.go: PeriodCodec
  - household/ordering.go: OrderRooms
*/
package cleaning

import (
	"fmt"

	"github.com/flatmate/household-engine/household"
)

// Slot is a (room, period) pair.
type Slot struct {
	RoomID   household.RoomID
	PeriodID household.PeriodID
}

// Rotation computes the next round of assignments.
type Rotation struct {
	Codec household.PeriodCodec

	// InitialPeriod is the first period assigned when the calendar is
	// empty: the first room gets InitialPeriod itself, not the period after
	// it. A latest period, by contrast, is already taken and the round
	// starts one period later.
	InitialPeriod household.PeriodID
}

// Candidates returns the assignments a pass would create. latest is nil on
// a cold start. Slots already present in occupied are skipped.
func (r Rotation) Candidates(latest *household.PeriodID, rooms []household.Room, occupied map[Slot]bool) ([]household.ScheduleAssignment, error) {
	ordered := household.OrderRooms(rooms)
	if len(ordered) == 0 {
		return nil, nil
	}

	// offset of room i from base is i+shift
	base, shift := r.InitialPeriod, 0
	if latest != nil {
		base, shift = *latest, 1
	}

	candidates := make([]household.ScheduleAssignment, 0, len(ordered))
	for i, room := range ordered {
		period, err := r.Codec.Offset(base, i+shift)
		if err != nil {
			return nil, fmt.Errorf("rotation for room %s: %w", room.ID, err)
		}
		if occupied[Slot{RoomID: room.ID, PeriodID: period}] {
			continue
		}
		candidates = append(candidates, household.ScheduleAssignment{
			RoomID:   room.ID,
			PeriodID: period,
		})
	}
	return candidates, nil
}
