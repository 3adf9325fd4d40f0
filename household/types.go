/*
Package household provides the core types of the household engine.

PURPOSE:
  This package holds the plain value types shared by the cleaning rotation
  scheduler and the cost allocation engine, the period codecs both of them
  rely on, and the collaborator interfaces the storage layer implements.
  Nothing here talks to a database or the network.

KEY CONCEPTS IN THIS FILE (types.go):
  - Room: a rentable room with its pricing multipliers
  - ScheduleAssignment: one room's cleaning turn for one period
  - Bill: one shared utility statement per month
  - CostEntry: one room's share of one bill
  - Outcome: explicit result of operations that can be a no-op

DESIGN PRINCIPLES:
  1. Values, not handles: updates build a new value and hand it to the store
  2. Precision: money is decimal.Decimal, never float
  3. Type Safety: distinct ID types for rooms, assignments, bills, costs
  4. Explicit absence: lookups return (value, found, error)

USAGE:
  room := household.Room{
      ID:                 "room-1",
      Name:               "Blue room",
      BasePrice:          decimal.NewFromInt(500),
      Multiplier:         decimal.NewFromInt(25),
      PurchaseMultiplier: decimal.NewFromInt(2),
  }

SEE ALSO:
  - period.go: PeriodCodec and its weekly/monthly implementations
  - store.go: collaborator interfaces
  - errors.go: error taxonomy
*/
package household

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RoomID string
type AssignmentID int64
type BillID string
type CostEntryID int64

// =============================================================================
// ROOM - Read-only from the core's point of view
// =============================================================================

// Room is a member of the household. Multiplier is the room's share of
// media/energy/internet in percent; PurchaseMultiplier scales shared
// purchases.
type Room struct {
	ID                 RoomID
	Name               string
	BasePrice          decimal.Decimal
	Multiplier         decimal.Decimal
	PurchaseMultiplier decimal.Decimal
}

// =============================================================================
// SCHEDULE ASSIGNMENT - One cleaning turn
// =============================================================================

// TaskStates holds the four chores of a cleaning turn.
type TaskStates struct {
	Kitchen    bool
	Bathroom   bool
	Toilet     bool
	LivingRoom bool
}

// Done reports whether every chore is ticked.
func (t TaskStates) Done() bool {
	return t.Kitchen && t.Bathroom && t.Toilet && t.LivingRoom
}

// ScheduleAssignment is a room's turn for one period. ID is zero until the
// store assigns one.
type ScheduleAssignment struct {
	ID       AssignmentID
	RoomID   RoomID
	PeriodID PeriodID
	Tasks    TaskStates
}

// WithTasks returns a copy with all four task states replaced.
func (a ScheduleAssignment) WithTasks(states TaskStates) ScheduleAssignment {
	a.Tasks = states
	return a
}

// =============================================================================
// BILL & COST ENTRY
// =============================================================================

// Bill is the shared statement for one month. ID is a monthly period
// identifier such as "2026-10".
type Bill struct {
	ID        BillID
	Media     decimal.Decimal
	Energy    decimal.Decimal
	Internet  decimal.Decimal
	Purchases decimal.Decimal

	// Rooms is the room set the bill was split between, recorded at
	// ingestion. Rooms added later are never charged for it.
	Rooms []RoomID
}

// Utilities is the part of the bill split by the percent multiplier.
func (b Bill) Utilities() decimal.Decimal {
	return b.Media.Add(b.Energy).Add(b.Internet)
}

// CostEntry is one room's charge for one bill. Price is fixed at creation.
type CostEntry struct {
	ID       CostEntryID
	Key      string
	BillID   BillID
	RoomID   RoomID
	Price    decimal.Decimal
	Accepted bool
}

// WithAccepted returns a copy with the acceptance flag replaced.
func (c CostEntry) WithAccepted(accepted bool) CostEntry {
	c.Accepted = accepted
	return c
}

// CostKey builds the unique key of a cost entry: billID + "_" + roomID.
func CostKey(billID BillID, roomID RoomID) string {
	return fmt.Sprintf("%s_%s", billID, roomID)
}

// NewCostEntry builds an unsaved, unaccepted cost entry.
func NewCostEntry(billID BillID, roomID RoomID, price decimal.Decimal) CostEntry {
	return CostEntry{
		Key:    CostKey(billID, roomID),
		BillID: billID,
		RoomID: roomID,
		Price:  price,
	}
}

// =============================================================================
// OUTCOME - Result of operations whose "nothing happened" case is expected
// =============================================================================

type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeNotFound
	OutcomeAlreadyExists
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeAlreadyExists:
		return "already_exists"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
