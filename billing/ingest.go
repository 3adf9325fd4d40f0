package billing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/lock"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
)

// Ingestor records bills and their per-room cost entries.
//
// IDEMPOTENCY:
//
//	Ingesting a known bill ID returns OutcomeAlreadyExists and writes
//	nothing. The check and the writes run under the "bill:<id>" lock.
//
// ATOMICITY:
//
//	If Store implements household.BillingTxStore, the bill and its cost
//	entries are written in one transaction. Otherwise a failed cost write
//	leaves the bill recorded and returns *household.PartialIngestionError;
//	Reconcile fills the gap.
type Ingestor struct {
	Store   household.BillingStore
	Rooms   household.RoomDirectory
	Locker  lock.Locker
	Codec   household.MonthlyCodec
	Metrics metrics.Collector
	Logger  *zap.Logger
}

// NewIngestor creates an ingestor. A nil locker means an in-process one.
func NewIngestor(store household.BillingStore, rooms household.RoomDirectory, locker lock.Locker) *Ingestor {
	if locker == nil {
		locker = lock.NewLocal(lock.DefaultWait)
	}
	return &Ingestor{
		Store:   store,
		Rooms:   rooms,
		Locker:  locker,
		Metrics: metrics.NewNop(),
		Logger:  zap.NewNop(),
	}
}

// Ingest records bill and one cost entry per current room.
func (in *Ingestor) Ingest(ctx context.Context, bill household.Bill) (household.Outcome, error) {
	m := metrics.OrNop(in.Metrics)
	log := logging.OrNop(in.Logger).With(zap.String("bill_id", string(bill.ID)))

	if err := ValidateBill(in.Codec, bill); err != nil {
		m.IncIngestion("failed")
		return 0, fmt.Errorf("ingest bill %s: %w", bill.ID, err)
	}

	unlock, err := in.lock(ctx, bill.ID)
	if err != nil {
		m.IncIngestion("failed")
		return 0, err
	}
	defer unlock()

	rooms, err := in.Rooms.Rooms(ctx)
	if err != nil {
		m.IncIngestion("failed")
		return 0, fmt.Errorf("load rooms: %w", err)
	}

	var outcome household.Outcome
	var written int
	if txStore, ok := in.Store.(household.BillingTxStore); ok {
		err = txStore.WithBillingTx(ctx, func(tx household.BillingStore) error {
			var werr error
			outcome, written, werr = writeBill(ctx, tx, bill, rooms)
			return werr
		})
		var partial *household.PartialIngestionError
		if errors.As(err, &partial) {
			// Rolled back: nothing of this bill is stored.
			err = partial.Cause
			written = 0
		}
	} else {
		outcome, written, err = writeBill(ctx, in.Store, bill, rooms)
	}

	if err != nil {
		var partial *household.PartialIngestionError
		if errors.As(err, &partial) {
			m.IncIngestion("partial")
			m.AddCostEntries(partial.Written)
			log.Error("bill recorded with missing cost entries",
				zap.Int("written", partial.Written),
				zap.Int("missing", len(partial.MissingRooms)),
				zap.Error(partial.Cause))
			return 0, err
		}
		m.IncIngestion("failed")
		return 0, fmt.Errorf("ingest bill %s: %w", bill.ID, err)
	}

	m.IncIngestion(outcome.String())
	m.AddCostEntries(written)
	if outcome == household.OutcomeApplied {
		log.Info("bill ingested", zap.Int("cost_entries", written))
	}
	return outcome, nil
}

// writeBill runs the check-then-act sequence of one ingestion against s.
func writeBill(ctx context.Context, s household.BillingStore, bill household.Bill, rooms []household.Room) (household.Outcome, int, error) {
	_, found, err := s.Bill(ctx, bill.ID)
	if err != nil {
		return 0, 0, err
	}
	if found {
		return household.OutcomeAlreadyExists, 0, nil
	}

	bill.Rooms = make([]household.RoomID, len(rooms))
	for i, r := range rooms {
		bill.Rooms[i] = r.ID
	}
	inserted, err := s.InsertBill(ctx, bill)
	if err != nil {
		return 0, 0, err
	}
	if !inserted {
		return household.OutcomeAlreadyExists, 0, nil
	}

	for i, room := range rooms {
		if _, _, err := s.InsertCost(ctx, household.NewCostEntry(bill.ID, room.ID, Price(bill, room))); err != nil {
			missing := make([]household.RoomID, 0, len(rooms)-i)
			for _, r := range rooms[i:] {
				missing = append(missing, r.ID)
			}
			return 0, i, &household.PartialIngestionError{
				BillID:       bill.ID,
				Written:      i,
				MissingRooms: missing,
				Cause:        err,
			}
		}
	}
	return household.OutcomeApplied, len(rooms), nil
}

// Reconcile creates the cost entries an existing bill is missing for the
// rooms it was ingested for, using the bill's stored amounts. Rooms that
// joined after ingestion are left alone; rooms deleted since are skipped.
// It returns how many entries were created.
func (in *Ingestor) Reconcile(ctx context.Context, billID household.BillID) (int, error) {
	unlock, err := in.lock(ctx, billID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	bill, found, err := in.Store.Bill(ctx, billID)
	if err != nil {
		return 0, fmt.Errorf("load bill %s: %w", billID, err)
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", household.ErrBillNotFound, billID)
	}

	log := logging.OrNop(in.Logger).With(zap.String("bill_id", string(billID)))
	created := 0
	for _, roomID := range bill.Rooms {
		room, found, err := in.Rooms.Room(ctx, roomID)
		if err != nil {
			return created, fmt.Errorf("load room %s: %w", roomID, err)
		}
		if !found {
			log.Warn("room of bill no longer exists, not reconciled", zap.String("room_id", string(roomID)))
			continue
		}
		_, inserted, err := in.Store.InsertCost(ctx, household.NewCostEntry(bill.ID, room.ID, Price(bill, room)))
		if err != nil {
			return created, fmt.Errorf("reconcile bill %s room %s: %w", billID, room.ID, err)
		}
		if inserted {
			created++
		}
	}

	metrics.OrNop(in.Metrics).AddCostEntries(created)
	if created > 0 {
		log.Info("bill reconciled", zap.Int("created", created))
	}
	return created, nil
}

func (in *Ingestor) lock(ctx context.Context, billID household.BillID) (lock.Unlock, error) {
	unlock, err := in.Locker.Lock(ctx, lock.BillKey(billID))
	if err != nil {
		if errors.Is(err, household.ErrLockTimeout) {
			metrics.OrNop(in.Metrics).IncLockTimeout("bill")
		}
		return nil, fmt.Errorf("lock bill %s: %w", billID, err)
	}
	return unlock, nil
}
