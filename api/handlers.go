/*
handlers.go - HTTP API handlers for the household engine

PURPOSE:
  Exposes the cleaning calendar, bill ingestion and payments via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  cleaning and billing packages.

ENDPOINTS:
  Rooms:
    GET    /api/rooms                  List rooms
    POST   /api/rooms                  Create room
    POST   /api/rooms/import           Create rooms from a household JSON
    GET    /api/rooms/{id}             Get room
    PUT    /api/rooms/{id}             Update room
    DELETE /api/rooms/{id}             Delete room

  Calendar:
    GET    /api/calendar               Calendar (extends the schedule first)
    PUT    /api/calendar/{id}          Replace the four task states

  Bills:
    GET    /api/bills                  List bills
    POST   /api/bills                  Ingest bill
    GET    /api/bills/{id}             Get bill
    POST   /api/bills/{id}/reconcile   Create missing cost entries

  Payments:
    GET    /api/payments               Payments (own or all)
    GET    /api/payments/active        Most recent unaccepted payment
    PUT    /api/payments/{id}          Set the accepted flag
    GET    /api/payments/export        Spreadsheet export

CALLER IDENTITY:
  The X-Room-ID header names the calling room. Without it the calendar and
  payments are returned for everyone and nothing is editable. With it,
  updates to another room's entries are rejected with 403.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Update of another room's entry
  - 404: Resource not found
  - 409: Bill or room already exists
  - 500: Partial ingestion, internal errors
  - 503: Lock timeout (retry later)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/flatmate/household-engine/billing"
	"github.com/flatmate/household-engine/cleaning"
	"github.com/flatmate/household-engine/factory"
	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/lock"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
)

// CallerHeader carries the identity of the calling room.
const CallerHeader = "X-Room-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options configures the engine components a Handler builds.
type Options struct {
	// Codec is the cleaning rotation codec. Defaults to weekly UTC.
	Codec household.PeriodCodec

	// InitialPeriod is the first period of an empty calendar. Defaults to
	// the current period.
	InitialPeriod household.PeriodID

	BillingCodec household.MonthlyCodec
	Locker       lock.Locker
	Metrics      metrics.Collector
	Logger       *zap.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      household.Store
	Calendar   *cleaning.Calendar
	Ingestor   *billing.Ingestor
	Payments   *billing.Payments
	Households *factory.HouseholdFactory
	Logger     *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler wires the scheduler and billing components around store.
func NewHandler(store household.Store, opts Options) *Handler {
	if opts.Codec == nil {
		opts.Codec = household.WeeklyCodec{Location: time.UTC}
	}
	if opts.Locker == nil {
		opts.Locker = lock.NewLocal(lock.DefaultWait)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.InitialPeriod == "" {
		opts.InitialPeriod = opts.Codec.Containing(opts.Now())
	}
	opts.Metrics = metrics.OrNop(opts.Metrics)
	opts.Logger = logging.OrNop(opts.Logger)

	ext := cleaning.NewExtender(store, store, cleaning.Rotation{
		Codec:         opts.Codec,
		InitialPeriod: opts.InitialPeriod,
	}, opts.Locker)
	ext.Metrics = opts.Metrics
	ext.Logger = opts.Logger.Named("scheduler")

	cal := cleaning.NewCalendar(ext)
	cal.Now = opts.Now

	ing := billing.NewIngestor(store, store, opts.Locker)
	ing.Codec = opts.BillingCodec
	ing.Metrics = opts.Metrics
	ing.Logger = opts.Logger.Named("billing")

	pay := billing.NewPayments(store, store)
	pay.Codec = opts.BillingCodec

	return &Handler{
		Store:      store,
		Calendar:   cal,
		Ingestor:   ing,
		Payments:   pay,
		Households: factory.NewHouseholdFactory(),
		Logger:     opts.Logger,
	}
}

// =============================================================================
// ROOM HANDLERS
// =============================================================================

// ListRooms returns all rooms.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Store.Rooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}

	dtos := make([]RoomDTO, len(rooms))
	for i, room := range rooms {
		dtos[i] = toRoomDTO(room)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRoom returns a single room.
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, found, err := h.Store.Room(r.Context(), household.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load room", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

// CreateRoom creates a room.
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.decodeRoom(w, r, "")
	if !ok {
		return
	}

	if err := h.Store.CreateRoom(r.Context(), room); err != nil {
		writeDomainError(w, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

// UpdateRoom replaces a room's name and pricing. Existing cost entries
// keep their prices.
func (h *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.decodeRoom(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	updated, err := h.Store.UpdateRoom(r.Context(), room)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update room", err)
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(room))
}

// DeleteRoom removes a room. Its assignments and cost entries stay.
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.Store.DeleteRoom(r.Context(), household.RoomID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete room", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "Room not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportRooms creates every room of a household JSON document. Rooms whose
// ID already exists are skipped.
func (h *Handler) ImportRooms(w http.ResponseWriter, r *http.Request) {
	var hj factory.HouseholdJSON
	if err := json.NewDecoder(r.Body).Decode(&hj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	rooms, err := h.Households.FromJSON(hj)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid household", err)
		return
	}

	resp := ImportResponse{Created: []string{}, Skipped: []string{}}
	for _, room := range rooms {
		err := h.Store.CreateRoom(r.Context(), room)
		switch {
		case errors.Is(err, household.ErrDuplicateRoom):
			resp.Skipped = append(resp.Skipped, string(room.ID))
		case err != nil:
			writeError(w, http.StatusInternalServerError, "Failed to import rooms", err)
			return
		default:
			resp.Created = append(resp.Created, string(room.ID))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeRoom reads a factory.RoomJSON body and validates it through the
// household factory. A non-empty pathID overrides the body's id.
func (h *Handler) decodeRoom(w http.ResponseWriter, r *http.Request, pathID string) (household.Room, bool) {
	var rj factory.RoomJSON
	if err := json.NewDecoder(r.Body).Decode(&rj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return household.Room{}, false
	}
	if pathID != "" {
		rj.ID = pathID
	}
	rooms, err := h.Households.FromJSON(factory.HouseholdJSON{Rooms: []factory.RoomJSON{rj}})
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid room", err)
		return household.Room{}, false
	}
	return rooms[0], true
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetCalendar returns the cleaning calendar, most recent first.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	var (
		views []cleaning.AssignmentView
		err   error
	)
	if caller := callerOf(r); caller != "" {
		views, err = h.Calendar.ForRoom(r.Context(), caller)
	} else {
		views, err = h.Calendar.ForAll(r.Context())
	}
	if err != nil {
		writeReadError(w, "Failed to load calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignmentDTOs(views))
}

// SetTaskStates replaces the task states of one assignment.
func (h *Handler) SetTaskStates(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment ID", err)
		return
	}
	var req SetTaskStatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	states, err := req.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid task states", err)
		return
	}

	ctx := r.Context()
	if caller := callerOf(r); caller != "" {
		a, found, err := h.Calendar.Assignment(ctx, household.AssignmentID(id))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load assignment", err)
			return
		}
		if found && a.RoomID != caller {
			writeError(w, http.StatusForbidden, "Assignment belongs to another room", nil)
			return
		}
	}

	outcome, err := h.Calendar.SetTaskStates(ctx, household.AssignmentID(id), states)
	if err != nil {
		writeReadError(w, "Failed to update tasks", err)
		return
	}
	if outcome == household.OutcomeNotFound {
		writeError(w, http.StatusNotFound, "Assignment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome.String()})
}

// =============================================================================
// BILL HANDLERS
// =============================================================================

// ListBills returns all bills, newest first.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := h.Store.Bills(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bills", err)
		return
	}
	dtos := make([]BillDTO, len(bills))
	for i, b := range bills {
		dtos[i] = toBillDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBill returns a single bill.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	bill, found, err := h.Store.Bill(r.Context(), household.BillID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load bill", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Bill not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTO(bill))
}

// CreateBill ingests a bill: 201 when recorded, 409 when the month is
// already billed.
func (h *Handler) CreateBill(w http.ResponseWriter, r *http.Request) {
	var req BillDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	outcome, err := h.Ingestor.Ingest(r.Context(), req.toDomain())
	if err != nil {
		writeDomainError(w, "Failed to ingest bill", err)
		return
	}

	resp := IngestResponse{BillID: req.ID, Outcome: outcome.String()}
	if outcome == household.OutcomeAlreadyExists {
		writeJSON(w, http.StatusConflict, resp)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ReconcileBill creates the cost entries a bill is missing.
func (h *Handler) ReconcileBill(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	created, err := h.Ingestor.Reconcile(r.Context(), household.BillID(id))
	if err != nil {
		writeReadError(w, "Failed to reconcile bill", err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{BillID: id, Created: created})
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// ListPayments returns the caller's payments, or every payment without a
// caller.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	views, err := h.paymentViews(r)
	if err != nil {
		writeReadError(w, "Failed to load payments", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTOs(views))
}

// GetActivePayment returns the caller's most recent unaccepted payment.
func (h *Handler) GetActivePayment(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	if caller == "" {
		writeError(w, http.StatusBadRequest, CallerHeader+" header is required", nil)
		return
	}

	view, found, err := h.Payments.Active(r.Context(), caller)
	if err != nil {
		writeReadError(w, "Failed to load payments", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "No open payment", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentDTO(view))
}

// SetAccepted sets the accepted flag of a payment.
func (h *Handler) SetAccepted(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payment ID", err)
		return
	}
	var req SetAcceptedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err)
		return
	}
	if req.Accepted == nil {
		writeError(w, http.StatusBadRequest, "Invalid payment update", errMissingAccepted)
		return
	}

	ctx := r.Context()
	if caller := callerOf(r); caller != "" {
		entry, found, err := h.Store.Cost(ctx, household.CostEntryID(id))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load payment", err)
			return
		}
		if found && entry.RoomID != caller {
			writeError(w, http.StatusForbidden, "Payment belongs to another room", nil)
			return
		}
	}

	outcome, err := h.Ingestor.SetAccepted(ctx, household.CostEntryID(id), *req.Accepted)
	if err != nil {
		writeReadError(w, "Failed to update payment", err)
		return
	}
	if outcome == household.OutcomeNotFound {
		writeError(w, http.StatusNotFound, "Payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, OutcomeResponse{Outcome: outcome.String()})
}

// ExportPayments streams the payments as an xlsx workbook.
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	views, err := h.paymentViews(r)
	if err != nil {
		writeReadError(w, "Failed to load payments", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.xlsx"`)
	if err := billing.WritePayments(w, views); err != nil {
		// Headers are gone; all we can do is log.
		h.Logger.Error("payments export failed", zap.Error(err))
	}
}

func (h *Handler) paymentViews(r *http.Request) ([]billing.PaymentView, error) {
	if caller := callerOf(r); caller != "" {
		return h.Payments.ForRoom(r.Context(), caller)
	}
	return h.Payments.All(r.Context())
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func callerOf(r *http.Request) household.RoomID {
	return household.RoomID(r.Header.Get(CallerHeader))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the household error taxonomy to a status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var partial *household.PartialIngestionError
	switch {
	case errors.As(err, &partial):
		missing := make([]string, len(partial.MissingRooms))
		for i, id := range partial.MissingRooms {
			missing[i] = string(id)
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: message,
			Code:  "partial_ingestion",
			Details: map[string]any{
				"bill_id":       string(partial.BillID),
				"written":       partial.Written,
				"missing_rooms": missing,
				"cause":         fmt.Sprint(partial.Cause),
			},
		})
	case errors.Is(err, household.ErrDuplicateRoom):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: message, Code: "duplicate", Details: err.Error()})
	case household.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid", Details: err.Error()})
	case household.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case household.IsRetryable(err):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: message, Code: "busy", Details: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// writeReadError is writeDomainError for requests that carry no period or
// amount. A validation failure there comes from stored data and is a
// server error.
func writeReadError(w http.ResponseWriter, message string, err error) {
	if household.IsClientError(err) {
		writeError(w, http.StatusInternalServerError, message, err)
		return
	}
	writeDomainError(w, message, err)
}
