package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/betbot/finbot/internal/domain"
)

func TestExchangeModeValuation(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "1000", "800")
	venue.addWallet("BTC", domain.WalletKindExchange, "0.5", "0.2")
	venue.addWallet("ETH", domain.WalletKindMargin, "100", "100") // 别的钱包类型不计入
	venue.prices["BTCUSD"] = d("20000")

	mode := NewExchangeMode(venue, venue, d("1"))
	ctx := context.Background()

	total, err := mode.TotalPortfolioValueUSD(ctx)
	if err != nil {
		t.Fatalf("TotalPortfolioValueUSD: %v", err)
	}
	// 1000 USD + 0.5 BTC × 20000
	if !total.Equal(d("11000")) {
		t.Fatalf("total = %s, want 11000", total)
	}

	available, err := mode.AvailablePortfolioValueUSD(ctx)
	if err != nil {
		t.Fatalf("AvailablePortfolioValueUSD: %v", err)
	}
	// 800 USD + 0.2 BTC × 20000
	if !available.Equal(d("4800")) {
		t.Fatalf("available = %s, want 4800", available)
	}
}

func TestExchangeModeValuationMissingTicker(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "1000", "1000")
	venue.addWallet("NEO", domain.WalletKindExchange, "10", "10")
	// 没有 NEOUSD 行情：估值必须失败，而不是静默少算

	mode := NewExchangeMode(venue, venue, d("1"))
	_, err := mode.TotalPortfolioValueUSD(context.Background())

	var valErr *ValuationError
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want ValuationError", err)
	}
}

func TestModeOrderTypes(t *testing.T) {
	venue := newFakeVenue()
	exchange := NewExchangeMode(venue, venue, d("0.9"))
	margin := NewMarginMode(venue, venue, d("1.8"))

	if exchange.OrderType() != domain.OrderTypeExchangeStop {
		t.Fatalf("exchange order type = %s", exchange.OrderType())
	}
	if margin.OrderType() != domain.OrderTypeStop {
		t.Fatalf("margin order type = %s", margin.OrderType())
	}
	if exchange.WalletKind() != domain.WalletKindExchange {
		t.Fatalf("exchange wallet kind = %s", exchange.WalletKind())
	}
	if margin.WalletKind() != domain.WalletKindMargin {
		t.Fatalf("margin wallet kind = %s", margin.WalletKind())
	}
	// 保证金模式允许 >1 的资金使用率（杠杆）
	if !margin.InvestmentRate().Equal(d("1.8")) {
		t.Fatalf("margin rate = %s, want 1.8", margin.InvestmentRate())
	}
}

func TestModeOpenPositionSize(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("ETH", domain.WalletKindExchange, "5", "3")

	mode := NewExchangeMode(venue, venue, d("1"))
	ctx := context.Background()

	size, err := mode.OpenPositionSize(ctx, "ETH")
	if err != nil {
		t.Fatalf("OpenPositionSize: %v", err)
	}
	// 持仓按总余额算，不是可用余额
	if !size.Equal(d("5")) {
		t.Fatalf("position = %s, want 5", size)
	}

	// 钱包不存在 → 持仓为零，不是错误
	size, err = mode.OpenPositionSize(ctx, "XRP")
	if err != nil {
		t.Fatalf("OpenPositionSize(XRP): %v", err)
	}
	if !size.IsZero() {
		t.Fatalf("position = %s, want 0", size)
	}
}
