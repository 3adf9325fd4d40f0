package cleaning

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
)

// SetTaskStates overwrites all four task states of an assignment. An
// unknown ID reports OutcomeNotFound and writes nothing.
func (c *Calendar) SetTaskStates(ctx context.Context, id household.AssignmentID, states household.TaskStates) (household.Outcome, error) {
	m := metrics.OrNop(c.Metrics)

	current, found, err := c.Assignments.Assignment(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load assignment %d: %w", id, err)
	}
	if !found {
		m.IncToggle("task", household.OutcomeNotFound.String())
		return household.OutcomeNotFound, nil
	}

	replaced, err := c.Assignments.ReplaceAssignment(ctx, current.WithTasks(states))
	if err != nil {
		return 0, fmt.Errorf("replace assignment %d: %w", id, err)
	}
	if !replaced {
		m.IncToggle("task", household.OutcomeNotFound.String())
		return household.OutcomeNotFound, nil
	}

	m.IncToggle("task", household.OutcomeApplied.String())
	logging.OrNop(c.Logger).Debug("task states updated",
		zap.Int64("assignment_id", int64(id)),
		zap.String("room_id", string(current.RoomID)),
		zap.Bool("done", states.Done()))
	return household.OutcomeApplied, nil
}

// Assignment returns the stored assignment, for callers that check
// ownership before updating.
func (c *Calendar) Assignment(ctx context.Context, id household.AssignmentID) (household.ScheduleAssignment, bool, error) {
	return c.Assignments.Assignment(ctx, id)
}
