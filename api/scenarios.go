/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built households that populate the store with realistic
	data for demos and manual testing.

AVAILABLE SCENARIOS:

	empty:          No rooms, no bills
	four-room-flat: Four rooms, a generated cleaning calendar and last
	                month's bill with one accepted payment

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create rooms via the household factory
 3. Extend the cleaning calendar
 4. Ingest bills and accept some payments

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "four-room-flat"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler wiring
  - factory/household.go: Household JSON definitions
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

const (
	ScenarioEmpty        = "empty"
	ScenarioFourRoomFlat = "four-room-flat"
)

var scenarios = []ScenarioDTO{
	{
		ID:          ScenarioEmpty,
		Name:        "Empty Flat",
		Description: "No rooms and no bills",
	},
	{
		ID:          ScenarioFourRoomFlat,
		Name:        "Four-Room Flat",
		Description: "Four rooms, a cleaning rotation and last month's bill",
	},
}

// FourRoomFlatJSON is the household of the four-room-flat scenario.
const FourRoomFlatJSON = `{
  "rooms": [
    {"id": "room-1", "name": "Blue room",   "base_price": "520.00", "multiplier": 30, "purchase_multiplier": 1},
    {"id": "room-2", "name": "Green room",  "base_price": "480.00", "multiplier": 25, "purchase_multiplier": 1},
    {"id": "room-3", "name": "Red room",    "base_price": "450.00", "multiplier": 25, "purchase_multiplier": 1},
    {"id": "room-4", "name": "Yellow room", "base_price": "390.00", "multiplier": 20, "purchase_multiplier": 2}
  ]
}`

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario: "+req.ScenarioID, nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset", err)
		return
	}
	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

var errUnknownScenario = errors.New("unknown scenario")

// LoadScenarioByID resets the store and loads the named scenario. Used by
// the API and by `flatshare seed`.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case ScenarioEmpty:
		load = func(context.Context) error { return nil }
	case ScenarioFourRoomFlat:
		load = h.loadFourRoomFlatScenario
	default:
		return errUnknownScenario
	}

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := load(ctx); err != nil {
		return err
	}
	h.setCurrentScenario(id)
	h.Logger.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadFourRoomFlatScenario(ctx context.Context) error {
	rooms, err := h.Households.ParseHousehold(FourRoomFlatJSON)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		if err := h.Store.CreateRoom(ctx, room); err != nil {
			return fmt.Errorf("create room %s: %w", room.ID, err)
		}
	}

	// Generates the first round of the rotation.
	if _, err := h.Calendar.ForAll(ctx); err != nil {
		return fmt.Errorf("extend calendar: %w", err)
	}

	now := h.Calendar.Now()
	lastMonth := h.Ingestor.Codec.Containing(now.AddDate(0, -1, 0))
	bill := household.Bill{
		ID:        household.BillID(lastMonth),
		Media:     decimal.RequireFromString("120.00"),
		Energy:    decimal.RequireFromString("84.50"),
		Internet:  decimal.RequireFromString("39.99"),
		Purchases: decimal.RequireFromString("26.40"),
	}
	if _, err := h.Ingestor.Ingest(ctx, bill); err != nil {
		return fmt.Errorf("ingest bill: %w", err)
	}

	// room-1 has already paid.
	paid, err := h.Store.CostsByRoom(ctx, "room-1")
	if err != nil {
		return err
	}
	for _, c := range paid {
		if _, err := h.Ingestor.SetAccepted(ctx, c.ID, true); err != nil {
			return err
		}
	}
	return nil
}
