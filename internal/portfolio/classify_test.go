package portfolio

import (
	"testing"

	"github.com/betbot/finbot/internal/domain"
)

func snapshotOrders() []domain.ExchangeOrder {
	return []domain.ExchangeOrder{
		{OrderID: "1", Symbol: "BTCUSD", Amount: d("1"), Type: domain.OrderTypeExchangeStop, State: domain.OrderStateActive},
		{OrderID: "2", Symbol: "ETHUSD", Amount: d("-2"), Type: domain.OrderTypeExchangeStop, State: domain.OrderStateActive},
		{OrderID: "3", Symbol: "ETHUSD", Amount: d("-1"), Type: domain.OrderTypeExchangeStop, State: domain.OrderStatePartiallyFilled},
		{OrderID: "4", Symbol: "LTCUSD", Amount: d("3"), Type: domain.OrderTypeExchangeStop, State: domain.OrderStateExecuted},
		{OrderID: "5", Symbol: "XRPUSD", Amount: d("1"), Type: domain.OrderTypeStop, State: domain.OrderStateActive},
		{OrderID: "6", Symbol: "EOSUSD", Amount: d("-1"), Type: domain.OrderTypeExchangeStop, State: domain.OrderStateCanceled},
	}
}

func TestActiveEntryOrders(t *testing.T) {
	// 已成交（4）、类型不符（5）、已取消（6）都要被过滤掉
	got := activeEntryOrders(snapshotOrders(), domain.OrderTypeExchangeStop)
	if len(got) != 1 || got[0].OrderID != "1" {
		t.Fatalf("activeEntryOrders = %+v, want only order 1", got)
	}
}

func TestActiveExitOrders(t *testing.T) {
	// 部分成交（3）仍算挂单中
	got := activeExitOrders(snapshotOrders(), domain.OrderTypeExchangeStop)
	if len(got) != 2 {
		t.Fatalf("activeExitOrders = %+v, want orders 2 and 3", got)
	}
}

func TestActiveOrderForSymbol(t *testing.T) {
	orders := snapshotOrders()
	if got := activeOrderForSymbol(orders, domain.OrderTypeExchangeStop, "BTCUSD"); got == nil || got.OrderID != "1" {
		t.Fatalf("activeOrderForSymbol(BTCUSD) = %+v, want order 1", got)
	}
	// 类型不匹配时视为不存在
	if got := activeOrderForSymbol(orders, domain.OrderTypeExchangeStop, "XRPUSD"); got != nil {
		t.Fatalf("activeOrderForSymbol(XRPUSD) = %+v, want nil", got)
	}
	if got := activeOrderForSymbol(orders, domain.OrderTypeExchangeStop, "IOTUSD"); got != nil {
		t.Fatalf("activeOrderForSymbol(IOTUSD) = %+v, want nil", got)
	}
}

func TestGroupBySymbol(t *testing.T) {
	grouped := groupBySymbol(activeExitOrders(snapshotOrders(), domain.OrderTypeExchangeStop))
	if len(grouped) != 1 || len(grouped["ETHUSD"]) != 2 {
		t.Fatalf("groupBySymbol = %+v, want 2 ETHUSD orders", grouped)
	}
}
