package portfolio

import "fmt"

// 错误分级（与对账循环的处理策略一一对应）：
//   - ConfigurationError / ValuationError：当前周期致命，立即中止，不做任何下单动作
//   - PlacementError / CancellationError：单币对级别，记录后跳过该币对，继续对账其余币对
// context 取消不包装，直接向上传播。

// ConfigurationError 配置错误（缺少预算钱包、止损价不低于入场价等）
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ValuationError 组合估值不可用，无法在未知预算下下单
type ValuationError struct {
	Op  string
	Err error
}

func (e *ValuationError) Error() string {
	return fmt.Sprintf("valuation error (%s): %v", e.Op, e.Err)
}

func (e *ValuationError) Unwrap() error { return e.Err }

// PlacementError 交易所拒单或下单确认超时
type PlacementError struct {
	Symbol string
	Err    error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("place order %s: %v", e.Symbol, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// CancellationError 撤单失败（包括订单在撤单前已成交的情况）
type CancellationError struct {
	OrderID string
	Symbol  string
	Err     error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancel order %s (%s): %v", e.OrderID, e.Symbol, e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }
