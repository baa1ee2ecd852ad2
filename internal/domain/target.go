package domain

import "github.com/shopspring/decimal"

// DesiredEntry 策略给出的期望入场：在 EntryPrice 买入，跌破 StopLossPrice 止损。
// 每个同步周期由外部策略重新生成，周期结束即丢弃。
// 仓位大小不在此结构上：Sizer 计算后返回新的 SizedEntry（入参不被修改）。
type DesiredEntry struct {
	Instrument    Instrument
	EntryPrice    decimal.Decimal
	StopLossPrice decimal.Decimal
}

// DesiredExit 期望退出（止损/止盈卖出价），创建后不可变
type DesiredExit struct {
	Instrument Instrument
	ExitPrice  decimal.Decimal
}

// SizedEntry 完成仓位计算后的入场目标
type SizedEntry struct {
	DesiredEntry
	Size decimal.Decimal // 计算得到的仓位数量，>= 0
}

// Notional 该入场占用的资金（size * entryPrice）
func (e SizedEntry) Notional() decimal.Decimal {
	return e.Size.Mul(e.EntryPrice)
}
