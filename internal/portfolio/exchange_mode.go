package portfolio

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/ports"
	"github.com/shopspring/decimal"
)

// ExchangeMode 现货交易模式：使用 exchange 钱包与现货止损单，
// 持仓即钱包余额，估值为全部现货钱包折算成 USD 的总和。
type ExchangeMode struct {
	wallets ports.WalletSource
	prices  ports.PriceSource
	rate    decimal.Decimal
}

func NewExchangeMode(wallets ports.WalletSource, prices ports.PriceSource, investmentRate decimal.Decimal) *ExchangeMode {
	return &ExchangeMode{wallets: wallets, prices: prices, rate: investmentRate}
}

func (m *ExchangeMode) Name() string                  { return "exchange" }
func (m *ExchangeMode) WalletKind() domain.WalletKind { return domain.WalletKindExchange }
func (m *ExchangeMode) OrderType() domain.OrderType   { return domain.OrderTypeExchangeStop }
func (m *ExchangeMode) InvestmentRate() decimal.Decimal {
	return m.rate
}

func (m *ExchangeMode) OpenPositionSize(ctx context.Context, currency domain.Currency) (decimal.Decimal, error) {
	return walletBalance(ctx, m.wallets, domain.WalletKindExchange, currency)
}

func (m *ExchangeMode) TotalPortfolioValueUSD(ctx context.Context) (decimal.Decimal, error) {
	return walletsValueUSD(ctx, m.wallets, m.prices, domain.WalletKindExchange, false)
}

func (m *ExchangeMode) AvailablePortfolioValueUSD(ctx context.Context) (decimal.Decimal, error) {
	return walletsValueUSD(ctx, m.wallets, m.prices, domain.WalletKindExchange, true)
}

// walletBalance 查找指定钱包余额，钱包不存在视为零持仓
// （交易所不会在 API 里返回从未使用过的钱包）。
func walletBalance(ctx context.Context, src ports.WalletSource, kind domain.WalletKind, currency domain.Currency) (decimal.Decimal, error) {
	wallets, err := src.ListWallets(ctx, kind)
	if err != nil {
		return decimal.Zero, err
	}
	for _, w := range wallets {
		if w.Currency == currency {
			return w.Balance, nil
		}
	}
	return decimal.Zero, nil
}

// walletsValueUSD 把一类钱包的全部余额折算成 USD。
// available=true 时用可用余额（未被挂单占用的部分）。
func walletsValueUSD(ctx context.Context, src ports.WalletSource, prices ports.PriceSource, kind domain.WalletKind, available bool) (decimal.Decimal, error) {
	wallets, err := src.ListWallets(ctx, kind)
	if err != nil {
		return decimal.Zero, &ValuationError{Op: "list wallets", Err: err}
	}

	total := decimal.Zero
	for _, w := range wallets {
		balance := w.Balance
		if available {
			balance = w.Available
		}
		if balance.IsZero() {
			continue
		}
		if w.Currency == "USD" {
			total = total.Add(balance)
			continue
		}
		price, err := prices.LastPrice(ctx, string(w.Currency)+"USD")
		if err != nil {
			return decimal.Zero, &ValuationError{Op: "last price " + string(w.Currency) + "USD", Err: err}
		}
		total = total.Add(balance.Mul(price))
	}
	return total, nil
}
