// Package metrics records what the scheduler and the allocator did.
package metrics

// Collector receives engine events. Implementations must be safe for
// concurrent use.
type Collector interface {
	// ObserveSchedulePass records one extension pass and how many
	// assignments it created.
	ObserveSchedulePass(created int, seconds float64)

	// IncIngestion counts bill ingestions by result: applied,
	// already_exists, partial, failed.
	IncIngestion(result string)

	// AddCostEntries counts cost entries written.
	AddCostEntries(n int)

	// IncToggle counts flag updates. kind is "task" or "acceptance",
	// result is an Outcome string.
	IncToggle(kind, result string)

	// IncLockTimeout counts acquisitions that gave up, by lock scope.
	IncLockTimeout(scope string)
}

// Nop discards everything.
type Nop struct{}

var _ Collector = Nop{}

func NewNop() Nop { return Nop{} }

func (Nop) ObserveSchedulePass(int, float64) {}

func (Nop) IncIngestion(string) {}

func (Nop) AddCostEntries(int) {}

func (Nop) IncToggle(string, string) {}

func (Nop) IncLockTimeout(string) {}

// OrNop returns c, or Nop when c is nil.
func OrNop(c Collector) Collector {
	if c == nil {
		return Nop{}
	}
	return c
}
