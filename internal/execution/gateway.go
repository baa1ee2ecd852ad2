package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "execution")

// VenueOps 交易所侧的原始订单原语（由 infrastructure 层实现）。
// Submit/Cancel 只负责发出指令，确认语义在网关里实现。
type VenueOps interface {
	SubmitOrder(ctx context.Context, req domain.NewOrder) (orderID string, err error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error)
}

// LiveGateway 真实下单网关：每个动作都阻塞到交易所确认终态
// （挂单确认 active、撤单确认 canceled）或 ctx 取消。
// 对账引擎的「同步单线程」模型依赖这里的阻塞语义。
type LiveGateway struct {
	venue          VenueOps
	pollInterval   time.Duration
	confirmTimeout time.Duration
}

func NewLiveGateway(venue VenueOps) *LiveGateway {
	return &LiveGateway{
		venue:          venue,
		pollInterval:   500 * time.Millisecond,
		confirmTimeout: 30 * time.Second,
	}
}

// PlaceOrder 提交订单并等待交易所确认挂出
func (g *LiveGateway) PlaceOrder(ctx context.Context, req domain.NewOrder) (*domain.ExchangeOrder, error) {
	orderID, err := g.venue.SubmitOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	order, err := g.waitForState(ctx, orderID, func(o *domain.ExchangeOrder) (bool, error) {
		switch o.State {
		case domain.OrderStateActive, domain.OrderStatePartiallyFilled, domain.OrderStateExecuted:
			return true, nil
		case domain.OrderStateError:
			return false, fmt.Errorf("venue rejected order %s", orderID)
		case domain.OrderStateCanceled:
			return false, fmt.Errorf("order %s canceled before activation", orderID)
		default:
			return false, nil
		}
	})
	if err != nil {
		return nil, err
	}
	log.Debugf("[网关] 订单 %s 已确认挂出（%s %s @ %s）",
		orderID, req.Instrument.Symbol, req.Amount.String(), req.Price.String())
	return order, nil
}

// CancelOrder 发出撤单并等待交易所确认完全取消。
// 订单在撤单前已成交时返回错误（由对账层记为撤单失败）。
func (g *LiveGateway) CancelOrder(ctx context.Context, orderID string) error {
	if err := g.venue.CancelOrder(ctx, orderID); err != nil {
		return err
	}

	_, err := g.waitForState(ctx, orderID, func(o *domain.ExchangeOrder) (bool, error) {
		switch o.State {
		case domain.OrderStateCanceled:
			return true, nil
		case domain.OrderStateExecuted:
			return false, fmt.Errorf("order %s filled before cancellation", orderID)
		default:
			return false, nil
		}
	})
	if err != nil {
		return err
	}
	log.Debugf("[网关] 订单 %s 已确认取消", orderID)
	return nil
}

// waitForState 轮询订单状态直到 done 返回 true、出错或超时
func (g *LiveGateway) waitForState(ctx context.Context, orderID string, done func(*domain.ExchangeOrder) (bool, error)) (*domain.ExchangeOrder, error) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(g.confirmTimeout)
	for {
		order, err := g.venue.GetOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
		ok, err := done(order)
		if err != nil {
			return nil, err
		}
		if ok {
			return order, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for order %s confirmation", orderID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
