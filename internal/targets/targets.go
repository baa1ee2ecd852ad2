package targets

import (
	"fmt"
	"os"

	"github.com/betbot/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// File 策略层产出的目标文件：每个币对最多一条入场意图和一条退出意图。
// 引擎只负责把交易所状态对齐到这份文件，不负责生成它。
type File struct {
	Entries []EntrySpec `yaml:"entries"`
	Exits   []ExitSpec  `yaml:"exits"`
}

type EntrySpec struct {
	Symbol       string `yaml:"symbol"`
	EntryPrice   string `yaml:"entry_price"`
	StopLossPrice string `yaml:"stop_loss_price"`
}

type ExitSpec struct {
	Symbol    string `yaml:"symbol"`
	ExitPrice string `yaml:"exit_price"`
}

// Load 读取目标文件并解析为引擎的期望状态
func Load(path string) (map[string]domain.DesiredEntry, map[string]domain.DesiredExit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read targets file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	return file.Resolve()
}

// Resolve 校验并把符号解析为已注册的交易品种
func (f *File) Resolve() (map[string]domain.DesiredEntry, map[string]domain.DesiredExit, error) {
	entries := make(map[string]domain.DesiredEntry, len(f.Entries))
	for _, spec := range f.Entries {
		instrument, err := domain.InstrumentFromSymbol(spec.Symbol)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := entries[instrument.Symbol]; ok {
			return nil, nil, fmt.Errorf("duplicate entry target for %s", instrument.Symbol)
		}
		entryPrice, err := decimal.NewFromString(spec.EntryPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("entry price for %s: %w", instrument.Symbol, err)
		}
		stopLoss, err := decimal.NewFromString(spec.StopLossPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("stop loss price for %s: %w", instrument.Symbol, err)
		}
		entries[instrument.Symbol] = domain.DesiredEntry{
			Instrument:    instrument,
			EntryPrice:    entryPrice,
			StopLossPrice: stopLoss,
		}
	}

	exits := make(map[string]domain.DesiredExit, len(f.Exits))
	for _, spec := range f.Exits {
		instrument, err := domain.InstrumentFromSymbol(spec.Symbol)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := exits[instrument.Symbol]; ok {
			return nil, nil, fmt.Errorf("duplicate exit target for %s", instrument.Symbol)
		}
		exitPrice, err := decimal.NewFromString(spec.ExitPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("exit price for %s: %w", instrument.Symbol, err)
		}
		exits[instrument.Symbol] = domain.DesiredExit{
			Instrument: instrument,
			ExitPrice:  exitPrice,
		}
	}

	return entries, exits, nil
}
