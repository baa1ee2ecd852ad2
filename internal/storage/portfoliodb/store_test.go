package portfoliodb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordAndList(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "portfolio.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i, v := range []string{"10000", "10100.5", "9980.25"} {
		err := store.RecordPortfolioValue(ctx, domain.PortfolioValue{
			AccountID: "acct-1",
			USDValue:  decimal.RequireFromString(v),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	err = store.RecordPortfolioValue(ctx, domain.PortfolioValue{
		AccountID: "acct-2",
		USDValue:  decimal.RequireFromString("500"),
		Timestamp: base,
	})
	require.NoError(t, err)

	values, err := store.ListValues(ctx, "acct-1", 10)
	require.NoError(t, err)
	require.Len(t, values, 3)

	// newest first
	require.True(t, values[0].USDValue.Equal(decimal.RequireFromString("9980.25")))
	require.Equal(t, base.Add(2*time.Minute), values[0].Timestamp)
	require.True(t, values[2].USDValue.Equal(decimal.RequireFromString("10000")))

	limited, err := store.ListValues(ctx, "acct-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := store.ListValues(ctx, "missing", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}
