package ports

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
)

// ValueRecorder persists portfolio value snapshots.
//
// NOTE: failure is a sink-side concern; the sync orchestrator logs it and
// never fails a cycle over it.
type ValueRecorder interface {
	RecordPortfolioValue(ctx context.Context, v domain.PortfolioValue) error
}
