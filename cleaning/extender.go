package cleaning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/lock"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
)

// Extender grows the calendar by one round whenever the latest assignment
// has elapsed. It is safe to call concurrently: the schedule lock
// serializes passes and InsertAssignment is exists-or-insert.
type Extender struct {
	Rooms       household.RoomDirectory
	Assignments household.AssignmentStore
	Rotation    Rotation
	Locker      lock.Locker
	Metrics     metrics.Collector
	Logger      *zap.Logger
}

// NewExtender creates an extender. A nil locker means an in-process one.
func NewExtender(rooms household.RoomDirectory, assignments household.AssignmentStore, rotation Rotation, locker lock.Locker) *Extender {
	if locker == nil {
		locker = lock.NewLocal(lock.DefaultWait)
	}
	return &Extender{
		Rooms:       rooms,
		Assignments: assignments,
		Rotation:    rotation,
		Locker:      locker,
		Metrics:     metrics.NewNop(),
		Logger:      zap.NewNop(),
	}
}

// EnsureExtended performs at most one extension pass and returns the number
// of assignments it created.
func (e *Extender) EnsureExtended(ctx context.Context, now time.Time) (int, error) {
	started := time.Now()
	m := metrics.OrNop(e.Metrics)

	unlock, err := e.Locker.Lock(ctx, lock.ScheduleKey)
	if err != nil {
		if errors.Is(err, household.ErrLockTimeout) {
			m.IncLockTimeout(lock.ScheduleKey)
		}
		return 0, fmt.Errorf("extend schedule: %w", err)
	}
	defer unlock()

	latest, found, err := e.Assignments.LatestAssignment(ctx)
	if err != nil {
		return 0, fmt.Errorf("load latest assignment: %w", err)
	}

	var latestPeriod *household.PeriodID
	if found {
		current, err := e.Rotation.Codec.IsCurrent(latest.PeriodID, now)
		if err != nil {
			return 0, fmt.Errorf("latest assignment %d: %w", latest.ID, err)
		}
		if current {
			return 0, nil
		}
		latestPeriod = &latest.PeriodID
	}

	rooms, err := e.Rooms.Rooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rooms: %w", err)
	}

	occupied, err := e.occupied(ctx, rooms)
	if err != nil {
		return 0, err
	}

	candidates, err := e.Rotation.Candidates(latestPeriod, rooms, occupied)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, c := range candidates {
		_, inserted, err := e.Assignments.InsertAssignment(ctx, c)
		if err != nil {
			return created, fmt.Errorf("insert assignment %s/%s: %w", c.RoomID, c.PeriodID, err)
		}
		if inserted {
			created++
		}
	}

	m.ObserveSchedulePass(created, time.Since(started).Seconds())
	if created > 0 {
		logging.OrNop(e.Logger).Info("schedule extended",
			zap.Int("created", created),
			zap.Int("rooms", len(rooms)),
			zap.Bool("cold_start", latestPeriod == nil))
	}
	return created, nil
}

func (e *Extender) occupied(ctx context.Context, rooms []household.Room) (map[Slot]bool, error) {
	occupied := make(map[Slot]bool)
	for _, room := range rooms {
		existing, err := e.Assignments.AssignmentsByRoom(ctx, room.ID)
		if err != nil {
			return nil, fmt.Errorf("load assignments of room %s: %w", room.ID, err)
		}
		for _, a := range existing {
			occupied[Slot{RoomID: a.RoomID, PeriodID: a.PeriodID}] = true
		}
	}
	return occupied, nil
}
