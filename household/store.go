/*
store.go - Collaborator interfaces between the core and persistence

PURPOSE:
  Defines what the core needs from storage. The core never holds a live
  record: it reads plain values, builds new ones, and hands them back
  through Insert and Replace calls.

KEY INTERFACES:
  RoomDirectory:   read access to the current room set
  RoomAdmin:       room management (outside the core, used by the API)
  AssignmentStore: cleaning assignments
  BillStore:       shared bills
  CostStore:       per-room cost entries
  BillingTxStore:  atomic bill + cost writes

EXISTS-OR-INSERT:
  InsertAssignment and InsertCost never create a second record for the
  same (room, period) or cost key. They report inserted=false and return
  the stored record instead. InsertBill reports inserted=false when the
  bill ID is taken. Implementations back this with unique constraints, so
  a race between two writers produces at most a rejected duplicate.

IMPLEMENTATIONS:
  - household/store/memory.go: In-memory for tests and the "memory" driver
  - store/sqldb: SQLite and PostgreSQL

SEE ALSO:
  - cleaning/extender.go: Uses AssignmentStore
  - billing/ingest.go: Uses BillingStore / BillingTxStore
*/
package household

import "context"

// =============================================================================
// ROOMS
// =============================================================================

// RoomDirectory gives read access to the household's rooms.
type RoomDirectory interface {
	// Rooms returns every room, ordered by ID.
	Rooms(ctx context.Context) ([]Room, error)

	// Room looks a room up by ID.
	Room(ctx context.Context, id RoomID) (Room, bool, error)
}

// RoomAdmin manages rooms. Rooms are owned outside the core; this is the
// surface the API and the household importer use.
type RoomAdmin interface {
	RoomDirectory

	// CreateRoom fails with ErrDuplicateRoom if the ID is taken.
	CreateRoom(ctx context.Context, room Room) error

	// UpdateRoom returns false if the room does not exist.
	UpdateRoom(ctx context.Context, room Room) (bool, error)

	// DeleteRoom returns false if the room does not exist.
	DeleteRoom(ctx context.Context, id RoomID) (bool, error)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// AssignmentStore persists cleaning assignments. Assignments are never
// deleted.
type AssignmentStore interface {
	// LatestAssignment returns the assignment with the highest period
	// identifier (ties broken by highest ID).
	LatestAssignment(ctx context.Context) (ScheduleAssignment, bool, error)

	// AssignmentsByRoom returns a room's assignments, oldest first.
	AssignmentsByRoom(ctx context.Context, roomID RoomID) ([]ScheduleAssignment, error)

	// Assignment looks an assignment up by ID.
	Assignment(ctx context.Context, id AssignmentID) (ScheduleAssignment, bool, error)

	// InsertAssignment is exists-or-insert on (RoomID, PeriodID). It returns
	// the stored assignment and whether it was created by this call.
	InsertAssignment(ctx context.Context, a ScheduleAssignment) (ScheduleAssignment, bool, error)

	// ReplaceAssignment overwrites the task states of an existing
	// assignment. Returns false if a.ID does not exist.
	ReplaceAssignment(ctx context.Context, a ScheduleAssignment) (bool, error)
}

// =============================================================================
// BILLING
// =============================================================================

// BillStore persists bills. Bills are immutable once inserted.
type BillStore interface {
	Bill(ctx context.Context, id BillID) (Bill, bool, error)

	// Bills returns every bill, newest first.
	Bills(ctx context.Context) ([]Bill, error)

	// InsertBill returns false, without writing, if the ID already exists.
	InsertBill(ctx context.Context, b Bill) (bool, error)
}

// CostStore persists per-room cost entries.
type CostStore interface {
	// CostsByRoom returns a room's entries, i.e. those keyed
	// "<billID>_<roomID>". Matching is on the room, not on a key suffix,
	// so "a_1" and "1" stay apart.
	CostsByRoom(ctx context.Context, roomID RoomID) ([]CostEntry, error)

	// CostsByBill returns the entries of one bill.
	CostsByBill(ctx context.Context, billID BillID) ([]CostEntry, error)

	Cost(ctx context.Context, id CostEntryID) (CostEntry, bool, error)

	// InsertCost is exists-or-insert on the cost key.
	InsertCost(ctx context.Context, c CostEntry) (CostEntry, bool, error)

	// ReplaceCost overwrites the acceptance flag of an existing entry.
	// Returns false if c.ID does not exist.
	ReplaceCost(ctx context.Context, c CostEntry) (bool, error)
}

// BillingStore is everything bill ingestion writes to.
type BillingStore interface {
	BillStore
	CostStore
}

// BillingTxStore runs billing writes atomically.
type BillingTxStore interface {
	BillingStore

	// WithBillingTx executes fn within a transaction.
	// If fn returns error, every write made through the given store is
	// rolled back.
	WithBillingTx(ctx context.Context, fn func(BillingStore) error) error
}

// Store is the full persistence surface of one backend.
type Store interface {
	RoomAdmin
	AssignmentStore
	BillingTxStore

	// Reset clears all data (demo scenarios only).
	Reset(ctx context.Context) error

	Close() error
}
