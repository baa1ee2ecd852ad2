package portfolio

import (
	"context"
	"testing"

	"github.com/betbot/finbot/internal/domain"
)

func exitActions(report *SyncReport, kind ActionKind) []Action {
	var out []Action
	for _, a := range report.Exits {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestReconcileExitsPlacesSellForOpenPosition(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")
	venue.addWallet("ETH", domain.WalletKindExchange, "5", "5")
	venue.prices["ETHUSD"] = d("100")

	m := newTestManager(venue, nil, "0.01")
	report := &SyncReport{}
	exits := map[string]domain.DesiredExit{
		"ETHUSD": desiredExit(t, "ETHUSD", "95"),
	}

	if err := m.reconcileExits(context.Background(), exits, report); err != nil {
		t.Fatalf("reconcileExits: %v", err)
	}
	if got := exitActions(report, ActionPlaced); len(got) != 1 {
		t.Fatalf("placed actions = %d, want 1 (report: %+v)", len(got), report.Exits)
	}

	orders := venue.activeOrders()
	if len(orders) != 1 {
		t.Fatalf("active orders = %d, want 1", len(orders))
	}
	// 卖出数量 = 持仓取负
	if !orders[0].Amount.Equal(d("-5")) {
		t.Fatalf("sell amount = %s, want -5", orders[0].Amount)
	}
	if !orders[0].Price.Equal(d("95")) {
		t.Fatalf("sell price = %s, want 95", orders[0].Price)
	}
}

func TestReconcileExitsSkipsWithoutPosition(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")

	m := newTestManager(venue, nil, "0.01")
	report := &SyncReport{}
	exits := map[string]domain.DesiredExit{
		"ETHUSD": desiredExit(t, "ETHUSD", "95"),
	}

	if err := m.reconcileExits(context.Background(), exits, report); err != nil {
		t.Fatalf("reconcileExits: %v", err)
	}
	if got := exitActions(report, ActionSkipped); len(got) != 1 {
		t.Fatalf("skipped actions = %d, want 1 (report: %+v)", len(got), report.Exits)
	}
	if orders := venue.activeOrders(); len(orders) != 0 {
		t.Fatalf("active orders = %d, want 0", len(orders))
	}
}

func TestReconcileExitsCancelsUnknownOrder(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")
	// 卖单（数量为负）但符号不在期望退出集合 → 陈旧订单，无条件撤掉
	venue.addOrder("LTCUSD", domain.OrderTypeExchangeStop, "-3", "40")

	m := newTestManager(venue, nil, "0.01")
	report := &SyncReport{}

	if err := m.reconcileExits(context.Background(), map[string]domain.DesiredExit{}, report); err != nil {
		t.Fatalf("reconcileExits: %v", err)
	}
	canceled := exitActions(report, ActionCanceled)
	if len(canceled) != 1 || canceled[0].Symbol != "LTCUSD" {
		t.Fatalf("canceled actions = %+v, want 1 for LTCUSD", canceled)
	}
	if orders := venue.activeOrders(); len(orders) != 0 {
		t.Fatalf("active orders = %d, want 0", len(orders))
	}
}

func TestReconcileExitsResetsDuplicates(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")
	venue.addWallet("ETH", domain.WalletKindExchange, "5", "5")
	venue.prices["ETHUSD"] = d("100")
	// 同一符号两张退出挂单：异常状态，整体重置
	venue.addOrder("ETHUSD", domain.OrderTypeExchangeStop, "-2", "95")
	venue.addOrder("ETHUSD", domain.OrderTypeExchangeStop, "-3", "96")

	m := newTestManager(venue, nil, "0.01")
	report := &SyncReport{}
	exits := map[string]domain.DesiredExit{
		"ETHUSD": desiredExit(t, "ETHUSD", "95"),
	}

	if err := m.reconcileExits(context.Background(), exits, report); err != nil {
		t.Fatalf("reconcileExits: %v", err)
	}
	if got := exitActions(report, ActionCanceled); len(got) != 2 {
		t.Fatalf("canceled actions = %d, want 2 (report: %+v)", len(got), report.Exits)
	}
	if got := exitActions(report, ActionPlaced); len(got) != 1 {
		t.Fatalf("placed actions = %d, want 1", len(got))
	}

	// 重置后只剩一张新单，数量对齐当前持仓
	orders := venue.activeOrders()
	if len(orders) != 1 {
		t.Fatalf("active orders = %d, want 1", len(orders))
	}
	if !orders[0].Amount.Equal(d("-5")) {
		t.Fatalf("sell amount = %s, want -5", orders[0].Amount)
	}
}

func TestReconcileExitsKeepsProtectiveOrder(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")
	venue.addWallet("ETH", domain.WalletKindExchange, "5", "5")
	venue.prices["ETHUSD"] = d("100")

	cases := []struct {
		name  string
		price string
	}{
		{"at desired price", "95"},
		{"above desired price", "98"},
		{"below but within tolerance", "94.6"}, // 相对差 ~0.42% < 0.5%
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newFakeVenue()
			v.wallets = venue.wallets
			v.prices = venue.prices
			v.addOrder("ETHUSD", domain.OrderTypeExchangeStop, "-5", tc.price)

			m := newTestManager(v, nil, "0.01")
			report := &SyncReport{}
			exits := map[string]domain.DesiredExit{
				"ETHUSD": desiredExit(t, "ETHUSD", "95"),
			}
			if err := m.reconcileExits(context.Background(), exits, report); err != nil {
				t.Fatalf("reconcileExits: %v", err)
			}
			if got := exitActions(report, ActionKept); len(got) != 1 {
				t.Fatalf("kept actions = %d, want 1 (report: %+v)", len(got), report.Exits)
			}
			if report.Mutations() != 0 {
				t.Fatalf("mutations = %d, want 0", report.Mutations())
			}
		})
	}
}

func TestReconcileExitsReplacesWhenPriceMovedUp(t *testing.T) {
	venue := newFakeVenue()
	venue.addWallet("USD", domain.WalletKindExchange, "10000", "10000")
	venue.addWallet("ETH", domain.WalletKindExchange, "5", "5")
	venue.prices["ETHUSD"] = d("100")
	// 挂单价 90 远低于新期望 95（追踪止损上移）→ 撤旧挂新
	oldID := venue.addOrder("ETHUSD", domain.OrderTypeExchangeStop, "-5", "90")

	m := newTestManager(venue, nil, "0.01")
	report := &SyncReport{}
	exits := map[string]domain.DesiredExit{
		"ETHUSD": desiredExit(t, "ETHUSD", "95"),
	}

	if err := m.reconcileExits(context.Background(), exits, report); err != nil {
		t.Fatalf("reconcileExits: %v", err)
	}
	if got := exitActions(report, ActionReplaced); len(got) != 1 {
		t.Fatalf("replaced actions = %d, want 1 (report: %+v)", len(got), report.Exits)
	}

	orders := venue.activeOrders()
	if len(orders) != 1 {
		t.Fatalf("active orders = %d, want 1", len(orders))
	}
	if orders[0].OrderID == oldID {
		t.Fatalf("old order %s still active", oldID)
	}
	if !orders[0].Price.Equal(d("95")) {
		t.Fatalf("new order price = %s, want 95", orders[0].Price)
	}
}
