package lock

// SlotCount reports how many keys a Local locker is tracking.
func SlotCount(l *Local) int { return l.slots.Size() }
