package domain

import "github.com/shopspring/decimal"

// WalletKind 钱包类型（现货/保证金/理财）
type WalletKind string

const (
	WalletKindExchange WalletKind = "exchange"
	WalletKindMargin   WalletKind = "margin"
	WalletKindFunding  WalletKind = "funding"
)

// Wallet 交易所钱包余额的只读快照
type Wallet struct {
	Currency  Currency
	Kind      WalletKind
	Balance   decimal.Decimal // 总余额
	Available decimal.Decimal // 可用余额（未被挂单占用）
}
