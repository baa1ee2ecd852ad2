package portfolio

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/ports"
	"github.com/shopspring/decimal"
)

// MarginMode 保证金交易模式：使用 margin 钱包与保证金止损单，
// 投资比例可以大于 1（杠杆），其余流程与现货模式相同。
type MarginMode struct {
	wallets ports.WalletSource
	prices  ports.PriceSource
	rate    decimal.Decimal
}

func NewMarginMode(wallets ports.WalletSource, prices ports.PriceSource, investmentRate decimal.Decimal) *MarginMode {
	return &MarginMode{wallets: wallets, prices: prices, rate: investmentRate}
}

func (m *MarginMode) Name() string                  { return "margin" }
func (m *MarginMode) WalletKind() domain.WalletKind { return domain.WalletKindMargin }
func (m *MarginMode) OrderType() domain.OrderType   { return domain.OrderTypeStop }
func (m *MarginMode) InvestmentRate() decimal.Decimal {
	return m.rate
}

func (m *MarginMode) OpenPositionSize(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	return walletBalance(ctx, m.wallets, domain.WalletKindMargin, currency)
}

func (m *MarginMode) TotalPortfolioValueUSD(ctx context.Context) (decimal.Decimal, error) {
	return walletsValueUSD(ctx, m.wallets, m.prices, domain.WalletKindMargin, false)
}

func (m *MarginMode) AvailablePortfolioValueUSD(ctx context.Context) (decimal.Decimal, error) {
	return walletsValueUSD(ctx, m.wallets, m.prices, domain.WalletKindMargin, true)
}
