package domain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Currency 货币代码（例如 BTC / ETH / USD）
type Currency string

// Instrument 可交易的币对，外部定义、不可变。
// MinOrderSize 为交易所要求的最小下单数量，低于该值的订单不会被提交。
type Instrument struct {
	Symbol       string          // 交易所符号（例如 BTCUSD）
	Base         Currency        // 基础货币（买入得到的货币）
	Quote        Currency        // 计价货币
	MinOrderSize decimal.Decimal // 最小下单数量
}

var (
	instrumentMu  sync.RWMutex
	instrumentReg = map[string]Instrument{}
)

// RegisterInstrument 注册一个币对（symbol 唯一，重复注册覆盖）
func RegisterInstrument(in Instrument) {
	instrumentMu.Lock()
	defer instrumentMu.Unlock()
	instrumentReg[in.Symbol] = in
}

// InstrumentFromSymbol 根据交易所符号查找币对
func InstrumentFromSymbol(symbol string) (Instrument, error) {
	instrumentMu.RLock()
	defer instrumentMu.RUnlock()
	in, ok := instrumentReg[strings.ToUpper(symbol)]
	if !ok {
		return Instrument{}, fmt.Errorf("unknown instrument symbol: %s", symbol)
	}
	return in, nil
}

// 常用币对，最小下单数量按交易所公开限制登记。
// 策略只允许引用已注册的币对，避免对未知符号下单。
func init() {
	for _, in := range []Instrument{
		{Symbol: "BTCUSD", Base: "BTC", Quote: "USD", MinOrderSize: decimal.RequireFromString("0.002")},
		{Symbol: "ETHUSD", Base: "ETH", Quote: "USD", MinOrderSize: decimal.RequireFromString("0.04")},
		{Symbol: "LTCUSD", Base: "LTC", Quote: "USD", MinOrderSize: decimal.RequireFromString("0.4")},
		{Symbol: "XRPUSD", Base: "XRP", Quote: "USD", MinOrderSize: decimal.RequireFromString("20")},
		{Symbol: "EOSUSD", Base: "EOS", Quote: "USD", MinOrderSize: decimal.RequireFromString("2")},
		{Symbol: "IOTUSD", Base: "IOT", Quote: "USD", MinOrderSize: decimal.RequireFromString("6")},
		{Symbol: "NEOUSD", Base: "NEO", Quote: "USD", MinOrderSize: decimal.RequireFromString("0.2")},
	} {
		RegisterInstrument(in)
	}
}
