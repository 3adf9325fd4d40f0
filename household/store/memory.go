// Package store provides Store implementations.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu sync.RWMutex
	memoryState
}

type memoryState struct {
	rooms       map[household.RoomID]household.Room
	assignments []household.ScheduleAssignment // ordered by ID
	bills       map[household.BillID]household.Bill
	costs       []household.CostEntry // ordered by ID
	nextID      int64
}

type slotKey struct {
	RoomID   household.RoomID
	PeriodID household.PeriodID
}

var _ household.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{memoryState: newMemoryState()}
}

func newMemoryState() memoryState {
	return memoryState{
		rooms: make(map[household.RoomID]household.Room),
		bills: make(map[household.BillID]household.Bill),
	}
}

func (m *Memory) Close() error { return nil }

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memoryState = newMemoryState()
	return nil
}

// =============================================================================
// ROOMS
// =============================================================================

func (m *Memory) Rooms(_ context.Context) ([]household.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rooms := make([]household.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	return household.OrderRooms(rooms), nil
}

func (m *Memory) Room(_ context.Context, id household.RoomID) (household.Room, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok, nil
}

func (m *Memory) CreateRoom(_ context.Context, room household.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; ok {
		return household.ErrDuplicateRoom
	}
	m.rooms[room.ID] = room
	return nil
}

func (m *Memory) UpdateRoom(_ context.Context, room household.Room) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return false, nil
	}
	m.rooms[room.ID] = room
	return true, nil
}

func (m *Memory) DeleteRoom(_ context.Context, id household.RoomID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return false, nil
	}
	delete(m.rooms, id)
	return true, nil
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func (m *Memory) LatestAssignment(_ context.Context) (household.ScheduleAssignment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest household.ScheduleAssignment
	found := false
	for _, a := range m.assignments {
		if !found || a.PeriodID > latest.PeriodID || (a.PeriodID == latest.PeriodID && a.ID > latest.ID) {
			latest, found = a, true
		}
	}
	return latest, found, nil
}

func (m *Memory) AssignmentsByRoom(_ context.Context, roomID household.RoomID) ([]household.ScheduleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []household.ScheduleAssignment
	for _, a := range m.assignments {
		if a.RoomID == roomID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *Memory) Assignment(_ context.Context, id household.AssignmentID) (household.ScheduleAssignment, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.assignmentIndex(id)
	if !ok {
		return household.ScheduleAssignment{}, false, nil
	}
	return m.assignments[i], true, nil
}

func (m *Memory) InsertAssignment(_ context.Context, a household.ScheduleAssignment) (household.ScheduleAssignment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := slotKey{RoomID: a.RoomID, PeriodID: a.PeriodID}
	for _, existing := range m.assignments {
		if (slotKey{RoomID: existing.RoomID, PeriodID: existing.PeriodID}) == want {
			return existing, false, nil
		}
	}

	m.nextID++
	a.ID = household.AssignmentID(m.nextID)
	m.assignments = append(m.assignments, a)
	return a, true, nil
}

func (m *Memory) ReplaceAssignment(_ context.Context, a household.ScheduleAssignment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.assignmentIndex(a.ID)
	if !ok {
		return false, nil
	}
	m.assignments[i] = m.assignments[i].WithTasks(a.Tasks)
	return true, nil
}

func (m *Memory) assignmentIndex(id household.AssignmentID) (int, bool) {
	return slices.BinarySearchFunc(m.assignments, id, func(a household.ScheduleAssignment, id household.AssignmentID) int {
		return int(a.ID - id)
	})
}

// =============================================================================
// BILLS & COSTS
// =============================================================================

func (m *Memory) Bill(_ context.Context, id household.BillID) (household.Bill, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	return b, ok, nil
}

func (m *Memory) Bills(_ context.Context) ([]household.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bills := make([]household.Bill, 0, len(m.bills))
	for _, b := range m.bills {
		bills = append(bills, b)
	}
	slices.SortFunc(bills, func(a, b household.Bill) int {
		return strings.Compare(string(b.ID), string(a.ID))
	})
	return bills, nil
}

func (m *Memory) InsertBill(_ context.Context, b household.Bill) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertBillLocked(b), nil
}

func (m *Memory) insertBillLocked(b household.Bill) bool {
	if _, ok := m.bills[b.ID]; ok {
		return false
	}
	b.Rooms = slices.Clone(b.Rooms)
	m.bills[b.ID] = b
	return true
}

func (m *Memory) CostsByRoom(_ context.Context, roomID household.RoomID) ([]household.CostEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []household.CostEntry
	for _, c := range m.costs {
		if c.RoomID == roomID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *Memory) CostsByBill(_ context.Context, billID household.BillID) ([]household.CostEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []household.CostEntry
	for _, c := range m.costs {
		if c.BillID == billID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *Memory) Cost(_ context.Context, id household.CostEntryID) (household.CostEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.costIndex(id)
	if !ok {
		return household.CostEntry{}, false, nil
	}
	return m.costs[i], true, nil
}

func (m *Memory) InsertCost(_ context.Context, c household.CostEntry) (household.CostEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, inserted := m.insertCostLocked(c)
	return stored, inserted, nil
}

func (m *Memory) insertCostLocked(c household.CostEntry) (household.CostEntry, bool) {
	for _, existing := range m.costs {
		if existing.Key == c.Key {
			return existing, false
		}
	}
	m.nextID++
	c.ID = household.CostEntryID(m.nextID)
	m.costs = append(m.costs, c)
	return c, true
}

func (m *Memory) ReplaceCost(_ context.Context, c household.CostEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.costIndex(c.ID)
	if !ok {
		return false, nil
	}
	m.costs[i] = m.costs[i].WithAccepted(c.Accepted)
	return true, nil
}

func (m *Memory) costIndex(id household.CostEntryID) (int, bool) {
	return slices.BinarySearchFunc(m.costs, id, func(c household.CostEntry, id household.CostEntryID) int {
		return int(c.ID - id)
	})
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithBillingTx executes fn within a transaction.
// For the memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithBillingTx(_ context.Context, fn func(household.BillingStore) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()

	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.memoryState = snapshot
		return err
	}
	return nil
}

func (m *Memory) snapshot() memoryState {
	s := memoryState{
		rooms:       make(map[household.RoomID]household.Room, len(m.rooms)),
		assignments: slices.Clone(m.assignments),
		bills:       make(map[household.BillID]household.Bill, len(m.bills)),
		costs:       slices.Clone(m.costs),
		nextID:      m.nextID,
	}
	for k, v := range m.rooms {
		s.rooms[k] = v
	}
	for k, v := range m.bills {
		s.bills[k] = v
	}
	return s
}

// txMemoryView operates on the parent while its lock is held by WithBillingTx.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) Bill(_ context.Context, id household.BillID) (household.Bill, bool, error) {
	b, ok := tv.parent.bills[id]
	return b, ok, nil
}

func (tv *txMemoryView) Bills(_ context.Context) ([]household.Bill, error) {
	bills := make([]household.Bill, 0, len(tv.parent.bills))
	for _, b := range tv.parent.bills {
		bills = append(bills, b)
	}
	slices.SortFunc(bills, func(a, b household.Bill) int {
		return strings.Compare(string(b.ID), string(a.ID))
	})
	return bills, nil
}

func (tv *txMemoryView) InsertBill(_ context.Context, b household.Bill) (bool, error) {
	return tv.parent.insertBillLocked(b), nil
}

func (tv *txMemoryView) CostsByRoom(_ context.Context, roomID household.RoomID) ([]household.CostEntry, error) {
	var result []household.CostEntry
	for _, c := range tv.parent.costs {
		if c.RoomID == roomID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tv *txMemoryView) CostsByBill(_ context.Context, billID household.BillID) ([]household.CostEntry, error) {
	var result []household.CostEntry
	for _, c := range tv.parent.costs {
		if c.BillID == billID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (tv *txMemoryView) Cost(_ context.Context, id household.CostEntryID) (household.CostEntry, bool, error) {
	i, ok := tv.parent.costIndex(id)
	if !ok {
		return household.CostEntry{}, false, nil
	}
	return tv.parent.costs[i], true, nil
}

func (tv *txMemoryView) InsertCost(_ context.Context, c household.CostEntry) (household.CostEntry, bool, error) {
	stored, inserted := tv.parent.insertCostLocked(c)
	return stored, inserted, nil
}

func (tv *txMemoryView) ReplaceCost(_ context.Context, c household.CostEntry) (bool, error) {
	i, ok := tv.parent.costIndex(c.ID)
	if !ok {
		return false, nil
	}
	tv.parent.costs[i] = tv.parent.costs[i].WithAccepted(c.Accepted)
	return true, nil
}
