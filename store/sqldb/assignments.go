package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flatmate/household-engine/household"
)

// =============================================================================
// ASSIGNMENT STORE
// =============================================================================

const assignmentColumns = `id, room_id, period_id, kitchen, bathroom, toilet, living_room`

func (qs *queries) LatestAssignment(ctx context.Context) (household.ScheduleAssignment, bool, error) {
	a, err := scanAssignment(qs.queryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments ORDER BY period_id DESC, id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return household.ScheduleAssignment{}, false, nil
	}
	if err != nil {
		return household.ScheduleAssignment{}, false, fmt.Errorf("failed to load latest assignment: %w", err)
	}
	return a, true, nil
}

func (qs *queries) AssignmentsByRoom(ctx context.Context, roomID household.RoomID) ([]household.ScheduleAssignment, error) {
	rows, err := qs.query(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE room_id = ? ORDER BY id`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var result []household.ScheduleAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (qs *queries) Assignment(ctx context.Context, id household.AssignmentID) (household.ScheduleAssignment, bool, error) {
	a, err := scanAssignment(qs.queryRow(ctx,
		`SELECT `+assignmentColumns+` FROM assignments WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return household.ScheduleAssignment{}, false, nil
	}
	if err != nil {
		return household.ScheduleAssignment{}, false, err
	}
	return a, true, nil
}

func (qs *queries) InsertAssignment(ctx context.Context, a household.ScheduleAssignment) (household.ScheduleAssignment, bool, error) {
	var id int64
	err := qs.queryRow(ctx,
		`INSERT INTO assignments (room_id, period_id, kitchen, bathroom, toilet, living_room) `+
			`VALUES (?, ?, ?, ?, ?, ?) `+
			`ON CONFLICT (room_id, period_id) DO NOTHING RETURNING id`,
		a.RoomID, a.PeriodID, a.Tasks.Kitchen, a.Tasks.Bathroom, a.Tasks.Toilet, a.Tasks.LivingRoom,
	).Scan(&id)
	switch {
	case err == nil:
		a.ID = household.AssignmentID(id)
		return a, true, nil
	case errors.Is(err, sql.ErrNoRows):
		existing, err := scanAssignment(qs.queryRow(ctx,
			`SELECT `+assignmentColumns+` FROM assignments WHERE room_id = ? AND period_id = ?`,
			a.RoomID, a.PeriodID))
		if err != nil {
			return household.ScheduleAssignment{}, false, fmt.Errorf("failed to load existing assignment: %w", err)
		}
		return existing, false, nil
	default:
		return household.ScheduleAssignment{}, false, fmt.Errorf("failed to insert assignment: %w", err)
	}
}

func (qs *queries) ReplaceAssignment(ctx context.Context, a household.ScheduleAssignment) (bool, error) {
	res, err := qs.exec(ctx,
		`UPDATE assignments SET kitchen = ?, bathroom = ?, toilet = ?, living_room = ? WHERE id = ?`,
		a.Tasks.Kitchen, a.Tasks.Bathroom, a.Tasks.Toilet, a.Tasks.LivingRoom, a.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update assignment: %w", err)
	}
	return rowsAffected(res)
}

func scanAssignment(row scanner) (household.ScheduleAssignment, error) {
	var a household.ScheduleAssignment
	err := row.Scan(&a.ID, &a.RoomID, &a.PeriodID,
		&a.Tasks.Kitchen, &a.Tasks.Bathroom, &a.Tasks.Toilet, &a.Tasks.LivingRoom)
	return a, err
}
