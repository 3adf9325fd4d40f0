package factory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmate/household-engine/household"
)

func TestParseHousehold(t *testing.T) {
	// GIVEN: a household with string and numeric amounts
	doc := `{
		"rooms": [
			{"id": "room-1", "name": "Blue room", "base_price": "500.00", "multiplier": 25, "purchase_multiplier": 2},
			{"id": "room-2", "base_price": 400, "multiplier": "35"}
		]
	}`

	// WHEN: parsing
	rooms, err := NewHouseholdFactory().ParseHousehold(doc)

	// THEN: rooms come back in document order with defaults applied
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, household.RoomID("room-1"), rooms[0].ID)
	assert.Equal(t, "Blue room", rooms[0].Name)
	assert.Equal(t, "500.00", rooms[0].BasePrice.StringFixed(2))
	assert.Equal(t, "2", rooms[0].PurchaseMultiplier.String())

	assert.Equal(t, "room-2", rooms[1].Name)
	assert.Equal(t, "35", rooms[1].Multiplier.String())
	assert.Equal(t, "1", rooms[1].PurchaseMultiplier.String())
}

func TestParseHousehold_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"malformed", `{"rooms": [`, "failed to parse household JSON"},
		{"missing id", `{"rooms": [{"base_price": 1, "multiplier": 1}]}`, "id is required"},
		{"duplicate id", `{"rooms": [
			{"id": "a", "base_price": 1, "multiplier": 1},
			{"id": "a", "base_price": 2, "multiplier": 1}]}`, `duplicate id "a"`},
		{"missing base price", `{"rooms": [{"id": "a", "multiplier": 1}]}`, "base_price is required"},
		{"missing multiplier", `{"rooms": [{"id": "a", "base_price": 1}]}`, "multiplier is required"},
		{"negative amount", `{"rooms": [{"id": "a", "base_price": -1, "multiplier": 1}]}`, "base_price must not be negative"},
	}

	f := NewHouseholdFactory()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseHousehold(tt.doc)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseHousehold_NegativeIsInvalidAmount(t *testing.T) {
	_, err := NewHouseholdFactory().ParseHousehold(`{"rooms": [{"id": "a", "base_price": 1, "multiplier": "-5"}]}`)
	assert.ErrorIs(t, err, household.ErrInvalidAmount)
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := NewHouseholdFactory()
	rooms, err := f.ParseHousehold(`{"rooms": [{"id": "room-1", "base_price": "450.50", "multiplier": 30}]}`)
	require.NoError(t, err)

	data, err := json.Marshal(f.ToJSON(rooms))
	require.NoError(t, err)
	again, err := f.ParseHousehold(string(data))

	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.True(t, again[0].BasePrice.Equal(rooms[0].BasePrice))
	assert.Equal(t, rooms[0].Name, again[0].Name)
}
