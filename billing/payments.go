package billing

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/flatmate/household-engine/household"
)

// PaymentView is a cost entry as shown to a room.
type PaymentView struct {
	ID       household.CostEntryID
	RoomID   household.RoomID
	RoomName string
	BillID   household.BillID
	Month    time.Month
	Year     int
	Prices   Breakdown
	Accepted bool
}

// Payments builds payment views.
type Payments struct {
	Store household.BillingStore
	Rooms household.RoomDirectory
	Codec household.MonthlyCodec
}

func NewPayments(store household.BillingStore, rooms household.RoomDirectory) *Payments {
	return &Payments{Store: store, Rooms: rooms}
}

// ForRoom returns a room's payments, most recent first.
func (p *Payments) ForRoom(ctx context.Context, roomID household.RoomID) ([]PaymentView, error) {
	entries, err := p.Store.CostsByRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("load costs of room %s: %w", roomID, err)
	}
	return p.views(ctx, entries)
}

// All returns every payment of every bill, most recent first.
func (p *Payments) All(ctx context.Context) ([]PaymentView, error) {
	bills, err := p.Store.Bills(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	var entries []household.CostEntry
	for _, b := range bills {
		costs, err := p.Store.CostsByBill(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("load costs of bill %s: %w", b.ID, err)
		}
		entries = append(entries, costs...)
	}
	return p.views(ctx, entries)
}

// Active returns the most recent payment the room has not accepted yet.
func (p *Payments) Active(ctx context.Context, roomID household.RoomID) (PaymentView, bool, error) {
	views, err := p.ForRoom(ctx, roomID)
	if err != nil {
		return PaymentView{}, false, err
	}
	for _, v := range views {
		if !v.Accepted {
			return v, true, nil
		}
	}
	return PaymentView{}, false, nil
}

// views decorates entries. Components are recomputed from the current room
// for display; Total is the price stored at ingestion. Entries of rooms
// that no longer exist are left out. A missing bill is an error: entries
// never exist without their bill.
func (p *Payments) views(ctx context.Context, entries []household.CostEntry) ([]PaymentView, error) {
	rooms, err := p.Rooms.Rooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}
	byID := make(map[household.RoomID]household.Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}

	bills := make(map[household.BillID]household.Bill)
	views := make([]PaymentView, 0, len(entries))
	for _, e := range entries {
		room, ok := byID[e.RoomID]
		if !ok {
			continue
		}
		bill, ok := bills[e.BillID]
		if !ok {
			var found bool
			bill, found, err = p.Store.Bill(ctx, e.BillID)
			if err != nil {
				return nil, fmt.Errorf("load bill %s: %w", e.BillID, err)
			}
			if !found {
				return nil, fmt.Errorf("cost entry %d: %w: %s", e.ID, household.ErrBillNotFound, e.BillID)
			}
			bills[e.BillID] = bill
		}

		year, month, err := p.Codec.YearMonth(household.PeriodID(e.BillID))
		if err != nil {
			return nil, fmt.Errorf("cost entry %d: %w", e.ID, err)
		}

		prices := Allocate(bill, room)
		prices.Total = e.Price

		views = append(views, PaymentView{
			ID:       e.ID,
			RoomID:   e.RoomID,
			RoomName: room.Name,
			BillID:   e.BillID,
			Month:    month,
			Year:     year,
			Prices:   prices,
			Accepted: e.Accepted,
		})
	}

	slices.SortStableFunc(views, func(a, b PaymentView) int {
		if c := cmp.Compare(b.BillID, a.BillID); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return views, nil
}
