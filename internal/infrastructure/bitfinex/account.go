package bitfinex

import (
	"context"
	"strings"

	"github.com/betbot/finbot/internal/domain"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type walletEntry struct {
	Type      string `json:"type"` // exchange / trading / deposit
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Available string `json:"available"`
}

// v1 的钱包类型命名和引擎内部不同：margin 叫 trading，funding 叫 deposit。
var walletKindByType = map[string]domain.WalletKind{
	"exchange": domain.WalletKindExchange,
	"trading":  domain.WalletKindMargin,
	"deposit":  domain.WalletKindFunding,
}

// ListWallets 拉取余额快照并过滤出指定类型的钱包
func (c *Client) ListWallets(ctx context.Context, kind domain.WalletKind) ([]domain.Wallet, error) {
	var entries []walletEntry
	if err := c.signedPost(ctx, "/v1/balances", nil, &entries); err != nil {
		return nil, err
	}

	wallets := make([]domain.Wallet, 0, len(entries))
	for _, e := range entries {
		k, ok := walletKindByType[e.Type]
		if !ok || k != kind {
			continue
		}
		balance, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "parse balance for %s", e.Currency)
		}
		available, err := decimal.NewFromString(e.Available)
		if err != nil {
			return nil, errors.Wrapf(err, "parse available for %s", e.Currency)
		}
		wallets = append(wallets, domain.Wallet{
			Currency:  domain.Currency(strings.ToUpper(e.Currency)),
			Kind:      kind,
			Balance:   balance,
			Available: available,
		})
	}
	return wallets, nil
}

type orderEntry struct {
	ID              int64  `json:"id"`
	ClientID        int64  `json:"cid"`
	Symbol          string `json:"symbol"`
	Price           string `json:"price"`
	Side            string `json:"side"`
	Type            string `json:"type"`
	Timestamp       string `json:"timestamp"`
	IsLive          bool   `json:"is_live"`
	IsCancelled     bool   `json:"is_cancelled"`
	OriginalAmount  string `json:"original_amount"`
	ExecutedAmount  string `json:"executed_amount"`
	RemainingAmount string `json:"remaining_amount"`
}

// ListOpenOrders 返回账户当前全部挂单的快照
func (c *Client) ListOpenOrders(ctx context.Context) ([]domain.ExchangeOrder, error) {
	var entries []orderEntry
	if err := c.signedPost(ctx, "/v1/orders", nil, &entries); err != nil {
		return nil, err
	}

	orders := make([]domain.ExchangeOrder, 0, len(entries))
	for _, e := range entries {
		order, err := e.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

type tickerResponse struct {
	LastPrice string `json:"last_price"`
}

// LastPrice 查询公共 ticker 的最新成交价
func (c *Client) LastPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var ticker tickerResponse
	if err := c.get(ctx, "/v1/pubticker/"+strings.ToLower(symbol), &ticker); err != nil {
		return decimal.Zero, err
	}
	price, err := decimal.NewFromString(ticker.LastPrice)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse last price for %s", symbol)
	}
	return price, nil
}
