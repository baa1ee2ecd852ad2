package portfolio

import (
	"context"
	"fmt"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/pkg/marketmath"
)

// 入场对账，单周期内每个币对走一次状态机：
//
//	无期望入场 + 有挂单        → 撤单（币对已退出期望集合）
//	有期望入场 + 无挂单 + 仓位过小 → 跳过（绝不提交低于最小下单量的订单）
//	有期望入场 + 无挂单        → 按期望价挂 post-only 新单
//	有期望入场 + 有挂单        → 价格容差比较，必要时撤旧挂新，否则保持不动
func (m *Manager) reconcileEntries(ctx context.Context, entries map[string]domain.DesiredEntry, report *SyncReport) error {
	// 先撤掉已经不在期望集合里的旧入场单
	if err := m.cancelRemovedEntryOrders(ctx, entries, report); err != nil {
		return err
	}

	// 计算仓位（失败即整个周期致命：不在未知预算下下单）
	sized, err := m.sizer.SizeEntries(ctx, entries)
	if err != nil {
		return err
	}

	return m.placeNewEntryOrders(ctx, sized, report)
}

// cancelRemovedEntryOrders 币对掉出期望集合时撤掉它的入场挂单。
// 此时持仓如何处理不是入场对账的事。
func (m *Manager) cancelRemovedEntryOrders(ctx context.Context, entries map[string]domain.DesiredEntry, report *SyncReport) error {
	snapshot, err := m.orders.ListOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	for _, order := range activeEntryOrders(snapshot, m.mode.OrderType()) {
		if _, wanted := entries[order.Symbol]; wanted {
			continue
		}
		log.Infof("📤 [入场对账] %s 不在期望集合中，撤单 %s", order.Symbol, order.OrderID)
		if err := m.cancelOrder(ctx, order); err != nil {
			if isInterrupted(err) {
				return err
			}
			log.Errorf("❌ [入场对账] %s 撤单失败: %v", order.Symbol, err)
			report.addEntry(Action{Symbol: order.Symbol, Kind: ActionFailed, Reason: "cancel removed order", Err: err})
			continue
		}
		report.addEntry(Action{Symbol: order.Symbol, Kind: ActionCanceled, Reason: "no longer desired"})
	}
	return nil
}

func (m *Manager) placeNewEntryOrders(ctx context.Context, sized map[string]domain.SizedEntry, report *SyncReport) error {
	snapshot, err := m.orders.ListOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	for symbol, entry := range sized {
		if err := ctx.Err(); err != nil {
			return err
		}

		// 低于最小下单量：跳过，不报错
		if entry.Size.LessThan(entry.Instrument.MinOrderSize) {
			log.Infof("📭 [入场对账] %s 仓位 %s 低于最小下单量 %s，跳过",
				symbol, entry.Size.String(), entry.Instrument.MinOrderSize.String())
			report.addEntry(Action{Symbol: symbol, Kind: ActionSkipped, Reason: "position size below minimum"})
			continue
		}

		order := activeOrderForSymbol(snapshot, m.mode.OrderType(), symbol)
		replaced := false
		if order != nil {
			if !m.entryOrderChanged(order, entry) {
				log.Debugf("[入场对账] %s 旧订单仍然有效（价格 %s / 期望 %s），保持不动",
					symbol, order.Price.String(), entry.EntryPrice.String())
				report.addEntry(Action{Symbol: symbol, Kind: ActionKept, Reason: "existing order within tolerance"})
				continue
			}

			log.Infof("📤 [入场对账] %s 订单参数已变化（数量 %s → %s，价格 %s → %s），撤旧挂新",
				symbol, order.Amount.String(), entry.Size.String(), order.Price.String(), entry.EntryPrice.String())
			if err := m.cancelOrder(ctx, *order); err != nil {
				if isInterrupted(err) {
					return err
				}
				// 撤单失败（例如订单在这期间已成交）：本周期放弃该币对
				log.Errorf("❌ [入场对账] %s 撤单失败，本周期跳过: %v", symbol, err)
				report.addEntry(Action{Symbol: symbol, Kind: ActionFailed, Reason: "cancel before replace", Err: err})
				continue
			}
			replaced = true
		}

		req := domain.NewOrder{
			Instrument: entry.Instrument,
			Type:       m.mode.OrderType(),
			Amount:     entry.Size,
			Price:      entry.EntryPrice,
			PostOnly:   true,
		}
		if _, err := m.placeOrder(ctx, req); err != nil {
			if isInterrupted(err) {
				return err
			}
			log.Errorf("❌ [入场对账] %s 下单失败: %v", symbol, err)
			report.addEntry(Action{Symbol: symbol, Kind: ActionFailed, Reason: "place entry order", Err: err})
			continue
		}

		kind := ActionPlaced
		if replaced {
			kind = ActionReplaced
		}
		log.Infof("📥 [入场对账] %s 已挂单：%s @ %s", symbol, entry.Size.String(), entry.EntryPrice.String())
		report.addEntry(Action{Symbol: symbol, Kind: kind})
	}
	return nil
}

// entryOrderChanged 入场单是否需要替换。
// 容差是不对称的：相对差超过容差要换；即使在容差内，挂单价严格高于
// 期望价（买单挂在更差的价位）也要换。
func (m *Manager) entryOrderChanged(order *domain.ExchangeOrder, entry domain.SizedEntry) bool {
	if !marketmath.WithinRelTolerance(order.Price, entry.EntryPrice, m.priceTolerance) {
		return true
	}
	return order.Price.GreaterThan(entry.EntryPrice)
}
