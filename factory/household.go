/*
Package factory provides JSON to Go household conversion.

PURPOSE:
  Converts a JSON household definition into household.Room values, so a
  flat can be set up (or rebuilt) from a file instead of room by room.
  Used by POST /api/rooms/import and `flatshare seed --file`.

JSON SCHEMA:
  {
    "rooms": [
      {
        "id": "room-1",
        "name": "Blue room",
        "base_price": "500.00",
        "multiplier": 25,
        "purchase_multiplier": 2
      }
    ]
  }

  Amounts may be JSON numbers or strings; strings avoid float rounding.

DEFAULTS:
  - name: the room ID
  - purchase_multiplier: 1

VALIDATION:
  - id is required and unique within the document
  - base_price and multiplier are required
  - no amount may be negative

USAGE:
  f := factory.NewHouseholdFactory()
  rooms, err := f.ParseHousehold(jsonString)

SEE ALSO:
  - household/types.go: Room type definition
  - api/scenarios.go: demo household built through this factory
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// HouseholdJSON is the JSON representation of a household.
type HouseholdJSON struct {
	Rooms []RoomJSON `json:"rooms"`
}

// RoomJSON represents one room.
type RoomJSON struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name,omitempty"`
	BasePrice          *decimal.Decimal `json:"base_price"`
	Multiplier         *decimal.Decimal `json:"multiplier"`
	PurchaseMultiplier *decimal.Decimal `json:"purchase_multiplier,omitempty"`
}

// =============================================================================
// HOUSEHOLD FACTORY
// =============================================================================

// HouseholdFactory converts JSON households to rooms.
type HouseholdFactory struct{}

func NewHouseholdFactory() *HouseholdFactory {
	return &HouseholdFactory{}
}

// ParseHousehold parses a JSON string into rooms, in document order.
func (f *HouseholdFactory) ParseHousehold(jsonStr string) ([]household.Room, error) {
	var hj HouseholdJSON
	if err := json.Unmarshal([]byte(jsonStr), &hj); err != nil {
		return nil, fmt.Errorf("failed to parse household JSON: %w", err)
	}
	return f.FromJSON(hj)
}

// FromJSON converts HouseholdJSON to rooms.
func (f *HouseholdFactory) FromJSON(hj HouseholdJSON) ([]household.Room, error) {
	rooms := make([]household.Room, 0, len(hj.Rooms))
	seen := make(map[string]bool, len(hj.Rooms))

	for i, rj := range hj.Rooms {
		if rj.ID == "" {
			return nil, fmt.Errorf("rooms[%d]: id is required", i)
		}
		if seen[rj.ID] {
			return nil, fmt.Errorf("rooms[%d]: duplicate id %q", i, rj.ID)
		}
		seen[rj.ID] = true

		room, err := parseRoom(rj)
		if err != nil {
			return nil, fmt.Errorf("rooms[%d] (%s): %w", i, rj.ID, err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// ToJSON converts rooms back to their JSON representation.
func (f *HouseholdFactory) ToJSON(rooms []household.Room) HouseholdJSON {
	hj := HouseholdJSON{Rooms: make([]RoomJSON, 0, len(rooms))}
	for _, r := range rooms {
		base, mult, pm := r.BasePrice, r.Multiplier, r.PurchaseMultiplier
		hj.Rooms = append(hj.Rooms, RoomJSON{
			ID:                 string(r.ID),
			Name:               r.Name,
			BasePrice:          &base,
			Multiplier:         &mult,
			PurchaseMultiplier: &pm,
		})
	}
	return hj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRoom(rj RoomJSON) (household.Room, error) {
	if rj.BasePrice == nil {
		return household.Room{}, fmt.Errorf("base_price is required")
	}
	if rj.Multiplier == nil {
		return household.Room{}, fmt.Errorf("multiplier is required")
	}

	room := household.Room{
		ID:                 household.RoomID(rj.ID),
		Name:               rj.Name,
		BasePrice:          *rj.BasePrice,
		Multiplier:         *rj.Multiplier,
		PurchaseMultiplier: decimal.NewFromInt(1),
	}
	if room.Name == "" {
		room.Name = rj.ID
	}
	if rj.PurchaseMultiplier != nil {
		room.PurchaseMultiplier = *rj.PurchaseMultiplier
	}

	for name, v := range map[string]decimal.Decimal{
		"base_price":          room.BasePrice,
		"multiplier":          room.Multiplier,
		"purchase_multiplier": room.PurchaseMultiplier,
	} {
		if v.IsNegative() {
			return household.Room{}, fmt.Errorf("%s must not be negative: %w", name, household.ErrInvalidAmount)
		}
	}
	return room, nil
}
