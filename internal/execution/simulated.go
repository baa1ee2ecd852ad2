package execution

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/betbot/finbot/internal/domain"
)

// SimulatedGateway 模拟网关：只记录日志不触碰交易所，
// 供 dry-run 模式下验证对账决策。
type SimulatedGateway struct {
	seq atomic.Int64
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{}
}

func (g *SimulatedGateway) PlaceOrder(_ context.Context, req domain.NewOrder) (*domain.ExchangeOrder, error) {
	id := fmt.Sprintf("sim-%d", g.seq.Add(1))
	log.Infof("🧪 [模拟] 挂单 %s：%s %s @ %s（类型 %s）",
		id, req.Instrument.Symbol, req.Amount.String(), req.Price.String(), req.Type)
	now := time.Now()
	return &domain.ExchangeOrder{
		OrderID:   id,
		Symbol:    req.Instrument.Symbol,
		Amount:    req.Amount,
		Price:     req.Price,
		Type:      req.Type,
		State:     domain.OrderStateActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (g *SimulatedGateway) CancelOrder(_ context.Context, orderID string) error {
	log.Infof("🧪 [模拟] 撤单 %s", orderID)
	return nil
}
