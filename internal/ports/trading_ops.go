package ports

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/shopspring/decimal"
)

// Small capability interfaces shared across layers (portfolio/execution/infrastructure).

type OrderPlacer interface {
	// PlaceOrder blocks until the venue confirms the order (active) or ctx is canceled.
	PlaceOrder(ctx context.Context, req domain.NewOrder) (*domain.ExchangeOrder, error)
}

type OrderCanceler interface {
	// CancelOrder blocks until the venue confirms full cancellation or ctx is canceled.
	CancelOrder(ctx context.Context, orderID string) error
}

type OpenOrdersSource interface {
	// ListOpenOrders returns a fresh snapshot of the account's open orders.
	ListOpenOrders(ctx context.Context) ([]domain.ExchangeOrder, error)
}

type WalletSource interface {
	// ListWallets returns a fresh snapshot of wallets of the given kind.
	ListWallets(ctx context.Context, kind domain.WalletKind) ([]domain.Wallet, error)
}

type PriceSource interface {
	// LastPrice returns the venue's last traded price for the symbol.
	LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Valuation interface {
	TotalPortfolioValueUSD(ctx context.Context) (decimal.Decimal, error)
	AvailablePortfolioValueUSD(ctx context.Context) (decimal.Decimal, error)
}
