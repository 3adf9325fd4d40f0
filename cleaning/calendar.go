package cleaning

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/metrics"
)

// AssignmentView is a calendar entry as shown to a room.
type AssignmentView struct {
	ID        household.AssignmentID
	RoomID    household.RoomID
	RoomName  string
	PeriodID  household.PeriodID
	PeriodEnd time.Time
	Editable  bool
	Tasks     household.TaskStates
}

// Calendar is the read path of the scheduler plus task-state updates.
// Every read extends the schedule first.
type Calendar struct {
	Extender    *Extender
	Rooms       household.RoomDirectory
	Assignments household.AssignmentStore
	Codec       household.PeriodCodec
	Metrics     metrics.Collector
	Logger      *zap.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// NewCalendar creates a calendar reading through the extender's
// collaborators.
func NewCalendar(ext *Extender) *Calendar {
	return &Calendar{
		Extender:    ext,
		Rooms:       ext.Rooms,
		Assignments: ext.Assignments,
		Codec:       ext.Rotation.Codec,
		Metrics:     ext.Metrics,
		Logger:      ext.Logger,
		Now:         time.Now,
	}
}

// ForAll returns every assignment, most recent first. Nothing is editable.
func (c *Calendar) ForAll(ctx context.Context) ([]AssignmentView, error) {
	if _, err := c.extend(ctx); err != nil {
		return nil, err
	}
	return c.views(ctx, "")
}

// ForRoom returns every assignment, most recent first, with the caller's
// own entries editable. An unknown caller sees an empty calendar.
func (c *Calendar) ForRoom(ctx context.Context, caller household.RoomID) ([]AssignmentView, error) {
	if _, err := c.extend(ctx); err != nil {
		return nil, err
	}
	_, found, err := c.Rooms.Room(ctx, caller)
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", caller, err)
	}
	if !found {
		return []AssignmentView{}, nil
	}
	return c.views(ctx, caller)
}

func (c *Calendar) extend(ctx context.Context) (int, error) {
	return c.Extender.EnsureExtended(ctx, c.now())
}

type sortKey struct {
	period int64
	id     household.AssignmentID
}

func (c *Calendar) views(ctx context.Context, caller household.RoomID) ([]AssignmentView, error) {
	rooms, err := c.Rooms.Rooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rooms: %w", err)
	}

	views := []AssignmentView{}
	keys := make(map[household.AssignmentID]sortKey)
	for _, room := range rooms {
		assignments, err := c.Assignments.AssignmentsByRoom(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("load assignments of room %s: %w", room.ID, err)
		}
		for _, a := range assignments {
			key, err := c.Codec.Parse(a.PeriodID)
			if err != nil {
				return nil, fmt.Errorf("assignment %d: %w", a.ID, err)
			}
			end, err := c.Codec.EndOf(a.PeriodID)
			if err != nil {
				return nil, fmt.Errorf("assignment %d: %w", a.ID, err)
			}
			keys[a.ID] = sortKey{period: key, id: a.ID}
			views = append(views, AssignmentView{
				ID:        a.ID,
				RoomID:    a.RoomID,
				RoomName:  room.Name,
				PeriodID:  a.PeriodID,
				PeriodEnd: end,
				Editable:  caller != "" && a.RoomID == caller,
				Tasks:     a.Tasks,
			})
		}
	}

	sortMostRecentFirst(views, func(v AssignmentView) sortKey { return keys[v.ID] })
	return views, nil
}

// sortMostRecentFirst stable-sorts by period key descending, then by
// assignment ID descending.
func sortMostRecentFirst(views []AssignmentView, key func(AssignmentView) sortKey) {
	slices.SortStableFunc(views, func(a, b AssignmentView) int {
		ka, kb := key(a), key(b)
		if c := cmp.Compare(kb.period, ka.period); c != 0 {
			return c
		}
		return cmp.Compare(kb.id, ka.id)
	})
}

func (c *Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
