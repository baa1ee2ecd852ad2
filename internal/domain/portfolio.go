package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioValue 单个同步周期结束时的组合价值快照。
// 由编排器创建一次并交给持久层，之后不再修改。
type PortfolioValue struct {
	AccountID string
	USDValue  decimal.Decimal
	Timestamp time.Time
}
