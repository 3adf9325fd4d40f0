package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// ROOM STORE
// =============================================================================

const roomColumns = `id, name, base_price, multiplier, purchase_multiplier`

func (qs *queries) Rooms(ctx context.Context) ([]household.Room, error) {
	rows, err := qs.query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []household.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Database collations may differ from byte order.
	return household.OrderRooms(rooms), nil
}

func (qs *queries) Room(ctx context.Context, id household.RoomID) (household.Room, bool, error) {
	r, err := scanRoom(qs.queryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return household.Room{}, false, nil
	}
	if err != nil {
		return household.Room{}, false, err
	}
	return r, true, nil
}

func (qs *queries) CreateRoom(ctx context.Context, room household.Room) error {
	_, err := qs.exec(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.Name, room.BasePrice, room.Multiplier, room.PurchaseMultiplier)
	if err != nil {
		if isUniqueViolation(err) {
			return household.ErrDuplicateRoom
		}
		return fmt.Errorf("failed to save room: %w", err)
	}
	return nil
}

func (qs *queries) UpdateRoom(ctx context.Context, room household.Room) (bool, error) {
	res, err := qs.exec(ctx,
		`UPDATE rooms SET name = ?, base_price = ?, multiplier = ?, purchase_multiplier = ? WHERE id = ?`,
		room.Name, room.BasePrice, room.Multiplier, room.PurchaseMultiplier, room.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update room: %w", err)
	}
	return rowsAffected(res)
}

func (qs *queries) DeleteRoom(ctx context.Context, id household.RoomID) (bool, error) {
	res, err := qs.exec(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete room: %w", err)
	}
	return rowsAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(row scanner) (household.Room, error) {
	var r household.Room
	err := row.Scan(&r.ID, &r.Name, &r.BasePrice, &r.Multiplier, &r.PurchaseMultiplier)
	return r, err
}
