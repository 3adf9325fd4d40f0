/*
Package lock serializes the check-then-act sequences of the engine.

PURPOSE:
  Schedule extension and bill ingestion both read state, decide, and write.
  Two callers interleaving that sequence could both decide to write. A
  Locker makes the sequence exclusive per key:

    "schedule"      - the whole assignment calendar
    "bill:<billID>" - ingestion of one bill

  Storage uniqueness constraints remain the last line: a race that slips
  past a lock produces at most a rejected duplicate, never a second record.

IMPLEMENTATIONS:
  Local: in-process keyed locks, for a single server
  Redis: SET NX PX with an owner token, for several server processes

DEADLINES:
  Every acquisition carries a deadline (Wait, default 5s). A caller that
  cannot get the lock in time receives household.ErrLockTimeout and no
  work is done.

SEE ALSO:
  - cleaning/extender.go
  - billing/ingest.go
*/
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/flatmate/household-engine/household"
)

// DefaultWait bounds how long Lock blocks when no wait is configured.
const DefaultWait = 5 * time.Second

// ScheduleKey guards the assignment calendar.
const ScheduleKey = "schedule"

// BillKey guards the ingestion of one bill.
func BillKey(id household.BillID) string {
	return "bill:" + string(id)
}

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker acquires exclusive, keyed locks.
type Locker interface {
	// Lock blocks until the key is held, the wait elapses, or ctx is done.
	Lock(ctx context.Context, key string) (Unlock, error)
}

// withWait bounds ctx by wait unless ctx already ends sooner.
func withWait(ctx context.Context, wait time.Duration) (context.Context, context.CancelFunc) {
	if wait <= 0 {
		wait = DefaultWait
	}
	return context.WithTimeout(ctx, wait)
}

// timeoutError reports why acquisition stopped. Cancellation by the caller
// is returned as is; our own deadline becomes ErrLockTimeout.
func timeoutError(parent context.Context, key string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", household.ErrLockTimeout, key)
}
