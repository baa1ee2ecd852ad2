package bitfinex

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// SubmitOrder 提交新订单。v1 用 side + 正数量表达方向，
// 引擎内部则是带符号数量，这里做转换。
func (c *Client) SubmitOrder(ctx context.Context, req domain.NewOrder) (string, error) {
	side := "buy"
	amount := req.Amount
	if amount.IsNegative() {
		side = "sell"
		amount = amount.Neg()
	}

	clientID := uuid.New().String()
	body := map[string]any{
		"symbol":        strings.ToLower(req.Instrument.Symbol),
		"amount":        amount.String(),
		"price":         req.Price.String(),
		"side":          side,
		"type":          strings.ToLower(string(req.Type)),
		"is_postonly":   req.PostOnly,
		"exchange":      "bitfinex",
		"client_req_id": clientID,
	}

	var placed orderEntry
	if err := c.signedPost(ctx, "/v1/order/new", body, &placed); err != nil {
		return "", err
	}
	log.Debugf("[下单] %s %s %s @ %s → 订单 %d（client %s）",
		side, req.Instrument.Symbol, amount.String(), req.Price.String(), placed.ID, clientID)
	return strconv.FormatInt(placed.ID, 10), nil
}

// CancelOrder 发出撤单指令（不等待确认，确认由网关轮询完成）
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid order id %q", orderID)
	}
	var resp orderEntry
	return c.signedPost(ctx, "/v1/order/cancel", map[string]any{"order_id": id}, &resp)
}

// GetOrder 查询单个订单的最新状态
func (c *Client) GetOrder(ctx context.Context, orderID string) (*domain.ExchangeOrder, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid order id %q", orderID)
	}
	var entry orderEntry
	if err := c.signedPost(ctx, "/v1/order/status", map[string]any{"order_id": id}, &entry); err != nil {
		return nil, err
	}
	return entry.toDomain()
}

func (e *orderEntry) toDomain() (*domain.ExchangeOrder, error) {
	price, err := decimal.NewFromString(e.Price)
	if err != nil {
		return nil, errors.Wrapf(err, "parse price for order %d", e.ID)
	}
	original, err := decimal.NewFromString(e.OriginalAmount)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount for order %d", e.ID)
	}
	executed := decimal.Zero
	if e.ExecutedAmount != "" {
		executed, err = decimal.NewFromString(e.ExecutedAmount)
		if err != nil {
			return nil, errors.Wrapf(err, "parse executed amount for order %d", e.ID)
		}
	}

	amount := original
	if e.Side == "sell" {
		amount = amount.Neg()
	}

	var createdAt time.Time
	if ts, err := strconv.ParseFloat(e.Timestamp, 64); err == nil {
		createdAt = time.Unix(int64(ts), 0)
	}

	clientID := ""
	if e.ClientID != 0 {
		clientID = strconv.FormatInt(e.ClientID, 10)
	}

	return &domain.ExchangeOrder{
		OrderID:   strconv.FormatInt(e.ID, 10),
		ClientID:  clientID,
		Symbol:    strings.ToUpper(e.Symbol),
		Amount:    amount,
		Price:     price,
		Type:      domain.OrderType(strings.ToUpper(e.Type)),
		State:     orderState(e, executed, original),
		CreatedAt: createdAt,
		UpdatedAt: time.Now(),
	}, nil
}

// orderState 按 v1 的 is_live / is_cancelled / 成交量推断状态
func orderState(e *orderEntry, executed, original decimal.Decimal) domain.OrderState {
	switch {
	case e.IsCancelled:
		return domain.OrderStateCanceled
	case e.IsLive && executed.IsPositive():
		return domain.OrderStatePartiallyFilled
	case e.IsLive:
		return domain.OrderStateActive
	case executed.GreaterThanOrEqual(original):
		return domain.OrderStateExecuted
	default:
		return domain.OrderStateCanceled
	}
}
