package portfolio

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/ports"
	"github.com/shopspring/decimal"
)

// TradingMode 交易模式能力接口。
//
// 现货管理器和保证金管理器共享同一套对账流程，只在钱包类型、订单类型、
// 投资比例和估值来源上不同。差异以注入式接口表达，Manager 不关心具体模式
// （与 Gateway 的注入方式一致）。
type TradingMode interface {
	// Valuation 组合估值（总值 / 可用值，USD）
	ports.Valuation

	// Name 模式名（日志用）
	Name() string

	// WalletKind 该模式使用的钱包类型
	WalletKind() domain.WalletKind

	// OrderType 该模式下所有订单使用的订单类型
	OrderType() domain.OrderType

	// InvestmentRate 可投入的组合价值比例（保证金模式可以 > 1）
	InvestmentRate() decimal.Decimal

	// OpenPositionSize 指定货币当前持仓数量（退出单的卖出数量来源）
	OpenPositionSize(ctx context.Context, currency domain.Currency) (decimal.Decimal, error)
}
