package portfolio

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/ports"
	"github.com/shopspring/decimal"
)

const (
	// positionSizePrecision 仓位数量统一四舍五入到 6 位小数。
	// 这是可复现性契约：同样的输入必须得到完全相同的仓位。
	positionSizePrecision = 6
)

var (
	// maxSinglePositionSize 单币对最多占用可投入预算的比例上限
	maxSinglePositionSize = decimal.RequireFromString("0.5")

	// budgetCurrency 预算货币，预算钱包缺失时直接判定为配置错误
	budgetCurrency = domain.Currency("USD")
)

// Sizer 仓位计算器。
// 除估值与钱包查询外不做任何外部调用：同样的估值输入必然得到同样的仓位，
// 这也是它能被穷举测试的原因。
type Sizer struct {
	mode               TradingMode
	wallets            ports.WalletSource
	maxLossPerPosition decimal.Decimal // 单仓位最大亏损占组合价值的比例
}

func NewSizer(mode TradingMode, wallets ports.WalletSource, maxLossPerPosition decimal.Decimal) *Sizer {
	return &Sizer{
		mode:               mode,
		wallets:            wallets,
		maxLossPerPosition: maxLossPerPosition,
	}
}

// SizeEntries 为每个期望入场计算仓位，返回新的不可变映射（不修改入参）。
//
// 每个入场取两个独立上限中的较小者：
//   - 资金上限：totalValue × investmentRate × 0.5 / entryPrice
//   - 亏损上限：totalValue × investmentRate × maxLossPerPosition / (entryPrice − stopLoss)
//
// 之后校验资金总需求，超出可用预算时按同一修正系数等比缩小全部仓位，
// 保持各入场之间的相对权重不变。
func (s *Sizer) SizeEntries(ctx context.Context, entries map[string]domain.DesiredEntry) (map[string]domain.SizedEntry, error) {
	if len(entries) == 0 {
		return map[string]domain.SizedEntry{}, nil
	}

	// 预算钱包必须存在，缺失时立刻失败，绝不用不完整的数据继续算
	if err := s.requireBudgetWallet(ctx); err != nil {
		return nil, err
	}

	totalValue, err := s.mode.TotalPortfolioValueUSD(ctx)
	if err != nil {
		return nil, asValuationError("total portfolio value", err)
	}
	availableValue, err := s.mode.AvailablePortfolioValueUSD(ctx)
	if err != nil {
		return nil, asValuationError("available portfolio value", err)
	}

	rate := s.mode.InvestmentRate()
	budget := totalValue.Mul(rate)
	capitalAvailable := availableValue.Mul(rate)

	sized := make(map[string]domain.SizedEntry, len(entries))
	capitalNeeded := decimal.Zero

	for symbol, entry := range entries {
		size, err := s.positionSize(entry, budget)
		if err != nil {
			return nil, err
		}
		se := domain.SizedEntry{DesiredEntry: entry, Size: size}
		sized[symbol] = se
		capitalNeeded = capitalNeeded.Add(se.Notional())
	}

	// 资金需求超出可用预算：单一修正系数等比缩小，再重新取整
	if capitalNeeded.GreaterThan(capitalAvailable) {
		factor := capitalAvailable.Div(capitalNeeded)
		log.Infof("💰 [仓位计算] 资金需求 %s 超出可用 %s，修正系数 %s",
			capitalNeeded.StringFixed(2), capitalAvailable.StringFixed(2), factor.StringFixed(6))

		for symbol, se := range sized {
			se.Size = roundSize(se.Size.Mul(factor))
			sized[symbol] = se
		}
	}

	return sized, nil
}

// positionSize 单个入场的仓位 = min(资金上限, 亏损上限)，6 位小数取整
func (s *Sizer) positionSize(entry domain.DesiredEntry, budget decimal.Decimal) (decimal.Decimal, error) {
	if !entry.EntryPrice.IsPositive() {
		return decimal.Zero, &ConfigurationError{
			Reason: "entry price must be positive for " + entry.Instrument.Symbol,
		}
	}

	// 止损必须在入场价之下，否则单笔最大亏损无意义
	lossPerUnit := entry.EntryPrice.Sub(entry.StopLossPrice)
	if !lossPerUnit.IsPositive() {
		return decimal.Zero, &ConfigurationError{
			Reason: "stop loss price must be below entry price for " + entry.Instrument.Symbol,
		}
	}

	sizePerCapital := budget.Mul(maxSinglePositionSize).Div(entry.EntryPrice)
	sizePerLoss := budget.Mul(s.maxLossPerPosition).Div(lossPerUnit)

	log.Debugf("💰 [仓位计算] %s 资金上限 %s，亏损上限 %s",
		entry.Instrument.Symbol, sizePerCapital.StringFixed(6), sizePerLoss.StringFixed(6))

	size := decimal.Min(sizePerCapital, sizePerLoss)
	return roundSize(size), nil
}

func (s *Sizer) requireBudgetWallet(ctx context.Context) error {
	wallets, err := s.wallets.ListWallets(ctx, s.mode.WalletKind())
	if err != nil {
		return asValuationError("list wallets", err)
	}
	for _, w := range wallets {
		if w.Currency == budgetCurrency {
			return nil
		}
	}
	return &ConfigurationError{
		Reason: "unable to find " + string(budgetCurrency) + " wallet (kind " + string(s.mode.WalletKind()) + ")",
	}
}

// roundSize 6 位小数、round-half-up（shopspring 对正数的 Round 即 half-up）
func roundSize(size decimal.Decimal) decimal.Decimal {
	return size.Round(positionSizePrecision)
}

func asValuationError(op string, err error) error {
	if _, ok := err.(*ValuationError); ok {
		return err
	}
	return &ValuationError{Op: op, Err: err}
}
