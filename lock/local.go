package lock

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
)

// Local is an in-process Locker. Each key maps to a one-slot channel;
// holding the lock means owning the slot. A key's slot is dropped once no
// caller holds or waits for it, so the map only grows with contention.
type Local struct {
	wait  time.Duration
	slots *xsync.Map[string, *localSlot]
}

// localSlot is shared by the holder and the waiters of one key. refs is
// only touched inside Compute.
type localSlot struct {
	ch   chan struct{}
	refs int
}

var _ Locker = (*Local)(nil)

// NewLocal creates an in-process locker. wait <= 0 means DefaultWait.
func NewLocal(wait time.Duration) *Local {
	return &Local{
		wait:  wait,
		slots: xsync.NewMap[string, *localSlot](),
	}
}

func (l *Local) Lock(ctx context.Context, key string) (Unlock, error) {
	slot := l.acquire(key)

	waitCtx, cancel := withWait(ctx, l.wait)
	defer cancel()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(key)
			})
		}, nil
	case <-waitCtx.Done():
		l.release(key)
		return nil, timeoutError(ctx, key)
	}
}

func (l *Local) acquire(key string) *localSlot {
	slot, _ := l.slots.Compute(key, func(s *localSlot, loaded bool) (*localSlot, xsync.ComputeOp) {
		if !loaded {
			s = &localSlot{ch: make(chan struct{}, 1)}
		}
		s.refs++
		return s, xsync.UpdateOp
	})
	return slot
}

func (l *Local) release(key string) {
	l.slots.Compute(key, func(s *localSlot, loaded bool) (*localSlot, xsync.ComputeOp) {
		if !loaded {
			return s, xsync.CancelOp
		}
		s.refs--
		if s.refs == 0 {
			return nil, xsync.DeleteOp
		}
		return s, xsync.UpdateOp
	})
}
