package portfolio

import (
	"context"
	"fmt"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/pkg/marketmath"
)

// 退出（止损）对账：先清理后补挂，两个阶段都扫全部退出挂单。
//
//	清理一：符号不在期望退出集合里 → 无条件撤单（必然是陈旧订单）
//	清理二：同一符号有多张退出挂单 → 该符号全部撤掉（重复是异常，
//	        保守做法是整体重置，而不是挑一张「最好的」留下）
//	补挂：  没有挂单的期望退出，按当前持仓数量取负挂 post-only 卖单
//	调价：  幸存的挂单只有在价格 >= 期望价或在容差内时保留，否则撤旧挂新
//	        （与入场规则刻意不同：止损看重「不从保护价后退」而非精确贴合）
func (m *Manager) reconcileExits(ctx context.Context, exits map[string]domain.DesiredExit, report *SyncReport) error {
	if err := m.cleanupOldExitOrders(ctx, exits, report); err != nil {
		return err
	}
	return m.placeNewExitOrders(ctx, exits, report)
}

func (m *Manager) cleanupOldExitOrders(ctx context.Context, exits map[string]domain.DesiredExit, report *SyncReport) error {
	snapshot, err := m.orders.ListOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}
	exitOrders := activeExitOrders(snapshot, m.mode.OrderType())

	// 未知订单：期望集合里没有这个符号
	known := exitOrders[:0:0]
	for _, order := range exitOrders {
		if _, wanted := exits[order.Symbol]; !wanted {
			log.Errorf("🧹 [退出对账] 发现陈旧的未知订单 %s (%s)，撤单", order.OrderID, order.Symbol)
			if err := m.cancelOrder(ctx, order); err != nil {
				if isInterrupted(err) {
					return err
				}
				report.addExit(Action{Symbol: order.Symbol, Kind: ActionFailed, Reason: "cancel unknown order", Err: err})
				continue
			}
			report.addExit(Action{Symbol: order.Symbol, Kind: ActionCanceled, Reason: "unknown exit order"})
			continue
		}
		known = append(known, order)
	}

	// 重复订单：同一符号全部撤掉，下个阶段重新挂唯一一张
	for symbol, group := range groupBySymbol(known) {
		if len(group) <= 1 {
			continue
		}
		log.Errorf("🧹 [退出对账] %s 存在 %d 张重复退出挂单，整体重置", symbol, len(group))
		for _, order := range group {
			if err := m.cancelOrder(ctx, order); err != nil {
				if isInterrupted(err) {
					return err
				}
				report.addExit(Action{Symbol: symbol, Kind: ActionFailed, Reason: "cancel duplicate order", Err: err})
				continue
			}
			report.addExit(Action{Symbol: symbol, Kind: ActionCanceled, Reason: "duplicate exit order"})
		}
	}
	return nil
}

func (m *Manager) placeNewExitOrders(ctx context.Context, exits map[string]domain.DesiredExit, report *SyncReport) error {
	// 清理之后取最新快照：刚撤掉的订单不能再被当作幸存者
	snapshot, err := m.orders.ListOpenOrders(ctx)
	if err != nil {
		return fmt.Errorf("list open orders: %w", err)
	}

	for symbol, exit := range exits {
		if err := ctx.Err(); err != nil {
			return err
		}

		order := activeOrderForSymbol(snapshot, m.mode.OrderType(), symbol)
		replaced := false
		if order != nil {
			if m.exitOrderStillProtective(order, exit) {
				log.Debugf("[退出对账] %s 旧订单价格合适（挂单 %s / 期望 %s），保持不动",
					symbol, order.Price.String(), exit.ExitPrice.String())
				report.addExit(Action{Symbol: symbol, Kind: ActionKept, Reason: "existing order at or above desired price"})
				continue
			}

			log.Infof("📤 [退出对账] %s 退出价已从 %s 移动到 %s，撤旧挂新",
				symbol, order.Price.String(), exit.ExitPrice.String())
			if err := m.cancelOrder(ctx, *order); err != nil {
				if isInterrupted(err) {
					return err
				}
				log.Errorf("❌ [退出对账] %s 撤单失败，本周期跳过: %v", symbol, err)
				report.addExit(Action{Symbol: symbol, Kind: ActionFailed, Reason: "cancel before replace", Err: err})
				continue
			}
			replaced = true
		}

		// 卖出数量 = 当前持仓取负
		position, err := m.mode.OpenPositionSize(ctx, exit.Instrument.Base)
		if err != nil {
			if isInterrupted(err) {
				return err
			}
			log.Errorf("❌ [退出对账] %s 持仓查询失败: %v", symbol, err)
			report.addExit(Action{Symbol: symbol, Kind: ActionFailed, Reason: "open position lookup", Err: err})
			continue
		}
		if !position.IsPositive() {
			log.Infof("📭 [退出对账] %s 无持仓可卖（%s），跳过", symbol, position.String())
			report.addExit(Action{Symbol: symbol, Kind: ActionSkipped, Reason: "no open position"})
			continue
		}

		req := domain.NewOrder{
			Instrument: exit.Instrument,
			Type:       m.mode.OrderType(),
			Amount:     position.Neg(),
			Price:      exit.ExitPrice,
			PostOnly:   true,
		}
		if _, err := m.placeOrder(ctx, req); err != nil {
			if isInterrupted(err) {
				return err
			}
			log.Errorf("❌ [退出对账] %s 下单失败: %v", symbol, err)
			report.addExit(Action{Symbol: symbol, Kind: ActionFailed, Reason: "place exit order", Err: err})
			continue
		}

		kind := ActionPlaced
		if replaced {
			kind = ActionReplaced
		}
		log.Infof("📥 [退出对账] %s 已挂退出单：%s @ %s", symbol, position.Neg().String(), exit.ExitPrice.String())
		report.addExit(Action{Symbol: symbol, Kind: kind})
	}
	return nil
}

// exitOrderStillProtective 退出挂单是否仍然有保护作用。
// 保留条件：挂单价已达到或高于期望退出价，或在容差内。
// 与入场的容差检查刻意不对称，两者不要合并。
func (m *Manager) exitOrderStillProtective(order *domain.ExchangeOrder, exit domain.DesiredExit) bool {
	if order.Price.GreaterThanOrEqual(exit.ExitPrice) {
		return true
	}
	return marketmath.WithinRelTolerance(order.Price, exit.ExitPrice, m.priceTolerance)
}
