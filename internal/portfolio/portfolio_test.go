package portfolio

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/shopspring/decimal"
)

// fakeVenue 内存交易所：挂单簿 + 钱包 + 行情，实现 Gateway 和全部只读端口。
// 下单/撤单直接改内存状态，让「第二次同步必须零动作」这类收敛性测试
// 可以在纯内存里跑完整个闭环。
type fakeVenue struct {
	mu      sync.Mutex
	orders  map[string]*domain.ExchangeOrder
	wallets []domain.Wallet
	prices  map[string]decimal.Decimal
	nextID  int

	placeErr  error            // 非空时 PlaceOrder 全部失败
	cancelErr map[string]error // 指定订单撤单失败
	listErr   error            // 非空时 ListOpenOrders 失败

	ops []string // 动作序列（顺序断言用）
}

func newFakeVenue() *fakeVenue {
	return &fakeVenue{
		orders:    make(map[string]*domain.ExchangeOrder),
		prices:    make(map[string]decimal.Decimal),
		cancelErr: make(map[string]error),
	}
}

func (v *fakeVenue) PlaceOrder(_ context.Context, req domain.NewOrder) (*domain.ExchangeOrder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.placeErr != nil {
		return nil, v.placeErr
	}
	v.nextID++
	id := fmt.Sprintf("%d", v.nextID)
	order := &domain.ExchangeOrder{
		OrderID:   id,
		Symbol:    req.Instrument.Symbol,
		Amount:    req.Amount,
		Price:     req.Price,
		Type:      req.Type,
		State:     domain.OrderStateActive,
		CreatedAt: time.Now(),
	}
	v.orders[id] = order
	v.ops = append(v.ops, "place "+req.Instrument.Symbol)
	return order, nil
}

func (v *fakeVenue) CancelOrder(_ context.Context, orderID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.cancelErr[orderID]; err != nil {
		return err
	}
	order, ok := v.orders[orderID]
	if !ok {
		return fmt.Errorf("unknown order %s", orderID)
	}
	order.State = domain.OrderStateCanceled
	v.ops = append(v.ops, "cancel "+order.Symbol)
	return nil
}

func (v *fakeVenue) ListOpenOrders(_ context.Context) ([]domain.ExchangeOrder, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.listErr != nil {
		return nil, v.listErr
	}
	var out []domain.ExchangeOrder
	for _, o := range v.orders {
		if o.IsActive() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (v *fakeVenue) ListWallets(_ context.Context, kind domain.WalletKind) ([]domain.Wallet, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []domain.Wallet
	for _, w := range v.wallets {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out, nil
}

func (v *fakeVenue) LastPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	price, ok := v.prices[symbol]
	if !ok {
		return decimal.Zero, fmt.Errorf("no ticker for %s", symbol)
	}
	return price, nil
}

func (v *fakeVenue) addWallet(currency string, kind domain.WalletKind, balance, available string) {
	v.wallets = append(v.wallets, domain.Wallet{
		Currency:  domain.Currency(currency),
		Kind:      kind,
		Balance:   d(balance),
		Available: d(available),
	})
}

// addOrder 直接塞一张挂单进快照（amount 带符号）
func (v *fakeVenue) addOrder(symbol string, typ domain.OrderType, amount, price string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.nextID++
	id := fmt.Sprintf("%d", v.nextID)
	v.orders[id] = &domain.ExchangeOrder{
		OrderID: id,
		Symbol:  symbol,
		Amount:  d(amount),
		Price:   d(price),
		Type:    typ,
		State:   domain.OrderStateActive,
	}
	return id
}

func (v *fakeVenue) activeOrders() []domain.ExchangeOrder {
	out, _ := v.ListOpenOrders(context.Background())
	return out
}

type fakeRecorder struct {
	mu     sync.Mutex
	values []domain.PortfolioValue
	err    error
}

func (r *fakeRecorder) RecordPortfolioValue(_ context.Context, value domain.PortfolioValue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.values = append(r.values, value)
	return nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustInstrument(t *testing.T, symbol string) domain.Instrument {
	t.Helper()
	in, err := domain.InstrumentFromSymbol(symbol)
	if err != nil {
		t.Fatalf("InstrumentFromSymbol(%s): %v", symbol, err)
	}
	return in
}

func desiredEntry(t *testing.T, symbol, entry, stop string) domain.DesiredEntry {
	t.Helper()
	return domain.DesiredEntry{
		Instrument:    mustInstrument(t, symbol),
		EntryPrice:    d(entry),
		StopLossPrice: d(stop),
	}
}

func desiredExit(t *testing.T, symbol, price string) domain.DesiredExit {
	t.Helper()
	return domain.DesiredExit{
		Instrument: mustInstrument(t, symbol),
		ExitPrice:  d(price),
	}
}

// newTestManager 现货模式 + 满额资金使用率 + 默认容差
func newTestManager(venue *fakeVenue, recorder *fakeRecorder, maxLoss string) *Manager {
	mode := NewExchangeMode(venue, venue, d("1"))
	cfg := Config{
		AccountID:          "test",
		MaxLossPerPosition: d(maxLoss),
	}
	if recorder != nil {
		return NewManager(mode, venue, venue, venue, recorder, cfg)
	}
	return NewManager(mode, venue, venue, venue, nil, cfg)
}
