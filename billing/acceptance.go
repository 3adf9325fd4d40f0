package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/flatmate/household-engine/household"
	"github.com/flatmate/household-engine/logging"
	"github.com/flatmate/household-engine/metrics"
)

// SetAccepted records whether a room acknowledged its charge. An unknown
// ID reports OutcomeNotFound and writes nothing.
func (in *Ingestor) SetAccepted(ctx context.Context, id household.CostEntryID, accepted bool) (household.Outcome, error) {
	m := metrics.OrNop(in.Metrics)

	entry, found, err := in.Store.Cost(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("load cost entry %d: %w", id, err)
	}
	if !found {
		m.IncToggle("acceptance", household.OutcomeNotFound.String())
		return household.OutcomeNotFound, nil
	}

	replaced, err := in.Store.ReplaceCost(ctx, entry.WithAccepted(accepted))
	if err != nil {
		return 0, fmt.Errorf("replace cost entry %d: %w", id, err)
	}
	if !replaced {
		m.IncToggle("acceptance", household.OutcomeNotFound.String())
		return household.OutcomeNotFound, nil
	}

	m.IncToggle("acceptance", household.OutcomeApplied.String())
	logging.OrNop(in.Logger).Debug("cost entry acceptance updated",
		zap.Int64("cost_id", int64(id)),
		zap.String("key", entry.Key),
		zap.Bool("accepted", accepted))
	return household.OutcomeApplied, nil
}
