package portfolio

import "github.com/betbot/finbot/internal/domain"

// 订单快照分类：对交易所最新的挂单列表做无状态过滤。
// 只认「状态为挂单中 + 订单类型匹配」的订单，其余（pending/已成交/已取消/
// 别的管理器的订单类型）一律忽略。不做任何缓存，每次都基于最新快照重算，
// 用少量重复计算换掉缓存过期带来的一整类 bug。

// activeOrderForSymbol 指定符号的唯一挂单（不存在时返回 nil）
func activeOrderForSymbol(orders []domain.ExchangeOrder, typ domain.OrderType, symbol string) *domain.ExchangeOrder {
	for i := range orders {
		o := &orders[i]
		if o.Type == typ && o.IsActive() && o.Symbol == symbol {
			return o
		}
	}
	return nil
}

// activeEntryOrders 全部挂单中的入场单（带符号数量 > 0）
func activeEntryOrders(orders []domain.ExchangeOrder, typ domain.OrderType) []domain.ExchangeOrder {
	var out []domain.ExchangeOrder
	for _, o := range orders {
		if o.Type == typ && o.IsActive() && o.IsEntry() {
			out = append(out, o)
		}
	}
	return out
}

// activeExitOrders 全部挂单中的退出单（带符号数量 <= 0）
func activeExitOrders(orders []domain.ExchangeOrder, typ domain.OrderType) []domain.ExchangeOrder {
	var out []domain.ExchangeOrder
	for _, o := range orders {
		if o.Type == typ && o.IsActive() && !o.IsEntry() {
			out = append(out, o)
		}
	}
	return out
}

// groupBySymbol 按符号分组（退出单去重阶段用）
func groupBySymbol(orders []domain.ExchangeOrder) map[string][]domain.ExchangeOrder {
	grouped := make(map[string][]domain.ExchangeOrder)
	for _, o := range orders {
		grouped[o.Symbol] = append(grouped[o.Symbol], o)
	}
	return grouped
}
