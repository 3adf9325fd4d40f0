package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// BILL STORE
// =============================================================================

const billColumns = `id, media, energy, internet, purchases, room_ids`

func (qs *queries) Bill(ctx context.Context, id household.BillID) (household.Bill, bool, error) {
	b, err := scanBill(qs.queryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return household.Bill{}, false, nil
	}
	if err != nil {
		return household.Bill{}, false, err
	}
	return b, true, nil
}

func (qs *queries) Bills(ctx context.Context) ([]household.Bill, error) {
	rows, err := qs.query(ctx, `SELECT `+billColumns+` FROM bills ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []household.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, rows.Err()
}

func (qs *queries) InsertBill(ctx context.Context, b household.Bill) (bool, error) {
	rooms := b.Rooms
	if rooms == nil {
		rooms = []household.RoomID{}
	}
	roomIDs, err := json.Marshal(rooms)
	if err != nil {
		return false, fmt.Errorf("failed to encode bill rooms: %w", err)
	}
	res, err := qs.exec(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		b.ID, b.Media, b.Energy, b.Internet, b.Purchases, string(roomIDs))
	if err != nil {
		return false, fmt.Errorf("failed to insert bill: %w", err)
	}
	return rowsAffected(res)
}

func scanBill(row scanner) (household.Bill, error) {
	var b household.Bill
	var roomIDs string
	if err := row.Scan(&b.ID, &b.Media, &b.Energy, &b.Internet, &b.Purchases, &roomIDs); err != nil {
		return household.Bill{}, err
	}
	if roomIDs != "" {
		if err := json.Unmarshal([]byte(roomIDs), &b.Rooms); err != nil {
			return household.Bill{}, fmt.Errorf("bill %s: invalid room_ids: %w", b.ID, err)
		}
	}
	return b, nil
}

// =============================================================================
// COST STORE
// =============================================================================

const costColumns = `id, cost_key, bill_id, room_id, price, accepted`

func (qs *queries) CostsByRoom(ctx context.Context, roomID household.RoomID) ([]household.CostEntry, error) {
	return qs.queryCosts(ctx, `SELECT `+costColumns+` FROM cost_entries WHERE room_id = ? ORDER BY id`, roomID)
}

func (qs *queries) CostsByBill(ctx context.Context, billID household.BillID) ([]household.CostEntry, error) {
	return qs.queryCosts(ctx, `SELECT `+costColumns+` FROM cost_entries WHERE bill_id = ? ORDER BY id`, billID)
}

func (qs *queries) Cost(ctx context.Context, id household.CostEntryID) (household.CostEntry, bool, error) {
	c, err := scanCost(qs.queryRow(ctx, `SELECT `+costColumns+` FROM cost_entries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return household.CostEntry{}, false, nil
	}
	if err != nil {
		return household.CostEntry{}, false, err
	}
	return c, true, nil
}

func (qs *queries) InsertCost(ctx context.Context, c household.CostEntry) (household.CostEntry, bool, error) {
	var id int64
	err := qs.queryRow(ctx,
		`INSERT INTO cost_entries (cost_key, bill_id, room_id, price, accepted) `+
			`VALUES (?, ?, ?, ?, ?) `+
			`ON CONFLICT (cost_key) DO NOTHING RETURNING id`,
		c.Key, c.BillID, c.RoomID, c.Price, c.Accepted,
	).Scan(&id)
	switch {
	case err == nil:
		c.ID = household.CostEntryID(id)
		return c, true, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, err := scanCost(qs.queryRow(ctx,
			`SELECT `+costColumns+` FROM cost_entries WHERE cost_key = ?`, c.Key))
		if err != nil {
			return household.CostEntry{}, false, fmt.Errorf("failed to load existing cost entry: %w", err)
		}
		return existing, false, nil
	default:
		return household.CostEntry{}, false, fmt.Errorf("failed to insert cost entry: %w", err)
	}
}

func (qs *queries) ReplaceCost(ctx context.Context, c household.CostEntry) (bool, error) {
	res, err := qs.exec(ctx, `UPDATE cost_entries SET accepted = ? WHERE id = ?`, c.Accepted, c.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update cost entry: %w", err)
	}
	return rowsAffected(res)
}

func (qs *queries) queryCosts(ctx context.Context, query string, args ...any) ([]household.CostEntry, error) {
	rows, err := qs.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost entries: %w", err)
	}
	defer rows.Close()

	var result []household.CostEntry
	for rows.Next() {
		c, err := scanCost(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func scanCost(row scanner) (household.CostEntry, error) {
	var c household.CostEntry
	err := row.Scan(&c.ID, &c.Key, &c.BillID, &c.RoomID, &c.Price, &c.Accepted)
	return c, err
}
