package portfolio

import (
	"context"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/metrics"
)

// 网关调用的统一封装：阻塞到交易所确认。
// ctx 取消原样返回（调用方向上传播并中止本轮循环）；
// 其余失败包装成分级错误返回，由调用方记入 report 后跳过该币对。

func (m *Manager) cancelOrder(ctx context.Context, order domain.ExchangeOrder) error {
	if err := m.gateway.CancelOrder(ctx, order.OrderID); err != nil {
		if isInterrupted(err) {
			return err
		}
		// 典型场景：订单在分类和撤单之间已成交——按撤单失败记录，本周期不重试
		metrics.OrderErrors.Add(1)
		return &CancellationError{OrderID: order.OrderID, Symbol: order.Symbol, Err: err}
	}
	metrics.OrdersCanceled.Add(1)
	return nil
}

func (m *Manager) placeOrder(ctx context.Context, req domain.NewOrder) (*domain.ExchangeOrder, error) {
	placed, err := m.gateway.PlaceOrder(ctx, req)
	if err != nil {
		if isInterrupted(err) {
			return nil, err
		}
		metrics.OrderErrors.Add(1)
		return nil, &PlacementError{Symbol: req.Instrument.Symbol, Err: err}
	}
	metrics.OrdersPlaced.Add(1)
	return placed, nil
}
