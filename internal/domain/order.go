package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeExchangeLimit OrderType = "EXCHANGE LIMIT" // 现货限价单
	OrderTypeLimit         OrderType = "LIMIT"          // 保证金限价单
	OrderTypeExchangeStop  OrderType = "EXCHANGE STOP"  // 现货止损单
	OrderTypeStop          OrderType = "STOP"           // 保证金止损单
)

// OrderState 交易所侧的订单状态
type OrderState string

const (
	OrderStateCreated         OrderState = "CREATED"          // 已创建，尚未确认
	OrderStateActive          OrderState = "ACTIVE"           // 挂单中
	OrderStatePartiallyFilled OrderState = "PARTIALLY FILLED" // 部分成交
	OrderStateExecuted        OrderState = "EXECUTED"         // 已成交
	OrderStateCanceled        OrderState = "CANCELED"         // 已取消
	OrderStateError           OrderState = "ERROR"            // 交易所拒绝
)

// ExchangeOrder 交易所订单的只读快照。
// 由交易所拥有：本引擎只读取，并通过网关发出 place/cancel 指令，绝不原地修改。
// Amount 为带符号数量：>0 买入（entry），<=0 卖出（exit）。
type ExchangeOrder struct {
	OrderID   string
	ClientID  string          // 下单时我们生成的客户端 ID（可选）
	Symbol    string          // 币对符号，与 Instrument.Symbol 对应
	Amount    decimal.Decimal // 带符号数量
	Price     decimal.Decimal
	Type      OrderType
	State     OrderState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive 是否挂单中（部分成交仍视为挂单）
func (o *ExchangeOrder) IsActive() bool {
	return o.State == OrderStateActive || o.State == OrderStatePartiallyFilled
}

// IsEntry 带符号数量 > 0 即为入场单
func (o *ExchangeOrder) IsEntry() bool {
	return o.Amount.IsPositive()
}

// NewOrder 下单请求（尚未提交给交易所）。
// PostOnly 保证订单只挂单，不会立即吃掉盘口。
type NewOrder struct {
	Instrument Instrument
	Type       OrderType
	Amount     decimal.Decimal // 带符号数量，负数为卖出
	Price      decimal.Decimal
	PostOnly   bool
}
