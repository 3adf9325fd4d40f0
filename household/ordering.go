package household

import (
	"cmp"
	"slices"
)

// OrderRooms returns the rooms sorted by ID. The result is a fresh slice;
// callers re-derive it on every pass so membership changes are picked up.
func OrderRooms(rooms []Room) []Room {
	ordered := slices.Clone(rooms)
	slices.SortStableFunc(ordered, func(a, b Room) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return ordered
}

// RoomNames indexes rooms by ID.
func RoomNames(rooms []Room) map[RoomID]string {
	names := make(map[RoomID]string, len(rooms))
	for _, r := range rooms {
		names[r.ID] = r.Name
	}
	return names
}
