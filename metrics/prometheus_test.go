package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flatmate/household-engine/metrics"
)

func TestPrometheus_RecordsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := metrics.NewPrometheus(reg, "test")

	p.ObserveSchedulePass(4, 0.002)
	p.ObserveSchedulePass(0, 0.001)
	p.IncIngestion("applied")
	p.IncIngestion("already_exists")
	p.IncIngestion("applied")
	p.AddCostEntries(4)
	p.IncToggle("task", "applied")
	p.IncLockTimeout("schedule")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["test_schedule_pass_duration_seconds"])
	assert.True(t, names["test_schedule_assignments_created_total"])
	assert.True(t, names["test_billing_ingestions_total"])
	assert.True(t, names["test_toggles_total"])
	assert.True(t, names["test_lock_timeouts_total"])

	count, err := testutil.GatherAndCount(reg, "test_schedule_pass_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = testutil.GatherAndCount(reg, "test_billing_ingestions_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one series per result label")
}

func TestPrometheus_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := metrics.NewPrometheus(reg, "")

	assert.NotPanics(t, func() {
		p.AddCostEntries(1)
		p.AddCostEntries(2)
	})

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "household_billing_cost_entries_created_total" {
			assert.Equal(t, 3.0, f.GetMetric()[0].GetCounter().GetValue())
			return
		}
	}
	t.Fatal("cost entry counter not registered")
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, metrics.NewNop(), metrics.OrNop(nil))

	p := metrics.NewPrometheus(prometheus.NewRegistry(), "x")
	assert.Same(t, p, metrics.OrNop(p))
}
