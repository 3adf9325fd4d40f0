/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the household model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Amounts are serialized as JSON strings ("585.00") by shopspring/decimal,
  and accepted as strings or numbers.

TYPES:
  Rooms:     RoomDTO (requests reuse factory.RoomJSON), ImportResponse
  Calendar:  AssignmentDTO, TaskStatesDTO, SetTaskStatesRequest
  Bills:     BillDTO, IngestResponse, ReconcileResponse
  Payments:  PaymentDTO, BreakdownDTO, SetAcceptedRequest
  Scenarios: ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/household.go: RoomJSON / HouseholdJSON
*/
package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flatmate/household-engine/billing"
	"github.com/flatmate/household-engine/cleaning"
	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// ROOMS
// =============================================================================

// RoomDTO represents a room in API responses.
type RoomDTO struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	BasePrice          decimal.Decimal `json:"base_price"`
	Multiplier         decimal.Decimal `json:"multiplier"`
	PurchaseMultiplier decimal.Decimal `json:"purchase_multiplier"`
}

// ImportResponse reports which rooms of an import were created.
type ImportResponse struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

func toRoomDTO(r household.Room) RoomDTO {
	return RoomDTO{
		ID:                 string(r.ID),
		Name:               r.Name,
		BasePrice:          r.BasePrice,
		Multiplier:         r.Multiplier,
		PurchaseMultiplier: r.PurchaseMultiplier,
	}
}

// =============================================================================
// CALENDAR
// =============================================================================

// TaskStatesDTO is the task part of AssignmentDTO.
type TaskStatesDTO struct {
	Kitchen    bool `json:"kitchen"`
	Bathroom   bool `json:"bathroom"`
	Toilet     bool `json:"toilet"`
	LivingRoom bool `json:"living_room"`
}

// Request turns t into a full PUT /api/calendar/{id} body.
func (t TaskStatesDTO) Request() SetTaskStatesRequest {
	return SetTaskStatesRequest{
		Kitchen:    &t.Kitchen,
		Bathroom:   &t.Bathroom,
		Toilet:     &t.Toilet,
		LivingRoom: &t.LivingRoom,
	}
}

// SetTaskStatesRequest is the body of PUT /api/calendar/{id}. It replaces
// all four states, so every field is required.
type SetTaskStatesRequest struct {
	Kitchen    *bool `json:"kitchen"`
	Bathroom   *bool `json:"bathroom"`
	Toilet     *bool `json:"toilet"`
	LivingRoom *bool `json:"living_room"`
}

func (r SetTaskStatesRequest) toDomain() (household.TaskStates, error) {
	var missing []string
	value := func(name string, v *bool) bool {
		if v == nil {
			missing = append(missing, name)
			return false
		}
		return *v
	}
	states := household.TaskStates{
		Kitchen:    value("kitchen", r.Kitchen),
		Bathroom:   value("bathroom", r.Bathroom),
		Toilet:     value("toilet", r.Toilet),
		LivingRoom: value("living_room", r.LivingRoom),
	}
	if len(missing) > 0 {
		return household.TaskStates{}, fmt.Errorf("missing task states: %s", strings.Join(missing, ", "))
	}
	return states, nil
}

// AssignmentDTO represents a calendar entry.
type AssignmentDTO struct {
	ID        int64         `json:"id"`
	RoomID    string        `json:"room_id"`
	RoomName  string        `json:"room_name"`
	PeriodID  string        `json:"period_id"`
	PeriodEnd string        `json:"period_end"`
	Editable  bool          `json:"editable"`
	Done      bool          `json:"done"`
	Tasks     TaskStatesDTO `json:"tasks"`
}


func toAssignmentDTOs(views []cleaning.AssignmentView) []AssignmentDTO {
	dtos := make([]AssignmentDTO, len(views))
	for i, v := range views {
		dtos[i] = AssignmentDTO{
			ID:        int64(v.ID),
			RoomID:    string(v.RoomID),
			RoomName:  v.RoomName,
			PeriodID:  string(v.PeriodID),
			PeriodEnd: v.PeriodEnd.Format(time.RFC3339),
			Editable:  v.Editable,
			Done:      v.Tasks.Done(),
			Tasks: TaskStatesDTO{
				Kitchen:    v.Tasks.Kitchen,
				Bathroom:   v.Tasks.Bathroom,
				Toilet:     v.Tasks.Toilet,
				LivingRoom: v.Tasks.LivingRoom,
			},
		}
	}
	return dtos
}

// =============================================================================
// BILLS
// =============================================================================

// BillDTO is a bill in requests and responses. RoomIDs is set by
// ingestion and ignored in requests.
type BillDTO struct {
	ID        string          `json:"id"`
	Media     decimal.Decimal `json:"media"`
	Energy    decimal.Decimal `json:"energy"`
	Internet  decimal.Decimal `json:"internet"`
	Purchases decimal.Decimal `json:"purchases"`
	RoomIDs   []string        `json:"room_ids,omitempty"`
}

func (b BillDTO) toDomain() household.Bill {
	return household.Bill{
		ID:        household.BillID(b.ID),
		Media:     b.Media,
		Energy:    b.Energy,
		Internet:  b.Internet,
		Purchases: b.Purchases,
	}
}

func toBillDTO(b household.Bill) BillDTO {
	dto := BillDTO{
		ID:        string(b.ID),
		Media:     b.Media,
		Energy:    b.Energy,
		Internet:  b.Internet,
		Purchases: b.Purchases,
	}
	for _, id := range b.Rooms {
		dto.RoomIDs = append(dto.RoomIDs, string(id))
	}
	return dto
}

// IngestResponse is returned by POST /api/bills.
type IngestResponse struct {
	BillID  string `json:"bill_id"`
	Outcome string `json:"outcome"`
}

// ReconcileResponse is returned by POST /api/bills/{id}/reconcile.
type ReconcileResponse struct {
	BillID  string `json:"bill_id"`
	Created int    `json:"created"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

type BreakdownDTO struct {
	Base      string `json:"base"`
	Media     string `json:"media"`
	Energy    string `json:"energy"`
	Internet  string `json:"internet"`
	Purchases string `json:"purchases"`
	Total     string `json:"total"`
}

// PaymentDTO represents one room's share of one bill.
type PaymentDTO struct {
	ID       int64        `json:"id"`
	RoomID   string       `json:"room_id"`
	RoomName string       `json:"room_name"`
	BillID   string       `json:"bill_id"`
	Month    int          `json:"month"`
	Year     int          `json:"year"`
	Prices   BreakdownDTO `json:"prices"`
	Accepted bool         `json:"accepted"`
}

// SetAcceptedRequest is the body of PUT /api/payments/{id}. Accepted is
// required.
type SetAcceptedRequest struct {
	Accepted *bool `json:"accepted"`
}

// NewSetAcceptedRequest builds a SetAcceptedRequest.
func NewSetAcceptedRequest(accepted bool) SetAcceptedRequest {
	return SetAcceptedRequest{Accepted: &accepted}
}

var errMissingAccepted = errors.New("missing accepted")

func toPaymentDTO(v billing.PaymentView) PaymentDTO {
	money := func(d decimal.Decimal) string { return d.StringFixed(billing.PricePlaces) }
	return PaymentDTO{
		ID:       int64(v.ID),
		RoomID:   string(v.RoomID),
		RoomName: v.RoomName,
		BillID:   string(v.BillID),
		Month:    int(v.Month),
		Year:     v.Year,
		Prices: BreakdownDTO{
			Base:      money(v.Prices.Base),
			Media:     money(v.Prices.Media),
			Energy:    money(v.Prices.Energy),
			Internet:  money(v.Prices.Internet),
			Purchases: money(v.Prices.Purchases),
			Total:     money(v.Prices.Total),
		},
		Accepted: v.Accepted,
	}
}

func toPaymentDTOs(views []billing.PaymentView) []PaymentDTO {
	dtos := make([]PaymentDTO, len(views))
	for i, v := range views {
		dtos[i] = toPaymentDTO(v)
	}
	return dtos
}

// =============================================================================
// COMMON
// =============================================================================

// OutcomeResponse reports the result of an update that may be a no-op.
type OutcomeResponse struct {
	Outcome string `json:"outcome"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
