package portfolio

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionKind 对账动作结果分类
type ActionKind string

const (
	ActionPlaced   ActionKind = "placed"   // 新订单已确认挂出
	ActionReplaced ActionKind = "replaced" // 撤旧单 + 挂新单
	ActionCanceled ActionKind = "canceled" // 仅撤单
	ActionKept     ActionKind = "kept"     // 旧订单仍然有效，保持不动
	ActionSkipped  ActionKind = "skipped"  // 主动跳过（例如仓位低于最小下单量）
	ActionFailed   ActionKind = "failed"   // 交易所调用失败，该币对本周期放弃
)

// Action 单个币对在一次对账中的处理结果。
// 交易所调用失败记为显式结果而不是吞掉：单币对失败不阻塞其余组合，
// 编排器也能按周期聚合汇报。
type Action struct {
	Symbol string
	Kind   ActionKind
	Reason string
	Err    error
}

// SyncReport 一次完整同步周期的聚合结果
type SyncReport struct {
	StartedAt         time.Time
	FinishedAt        time.Time
	Entries           []Action
	Exits             []Action
	PortfolioValueUSD decimal.Decimal
	ValueRecorded     bool
}

func (r *SyncReport) addEntry(a Action) { r.Entries = append(r.Entries, a) }
func (r *SyncReport) addExit(a Action)  { r.Exits = append(r.Exits, a) }

// Mutations 本周期实际触达交易所的动作数（幂等性检查的依据：
// 状态未变时第二次同步该值必须为 0）
func (r *SyncReport) Mutations() int {
	n := 0
	for _, a := range append(append([]Action{}, r.Entries...), r.Exits...) {
		switch a.Kind {
		case ActionPlaced, ActionReplaced, ActionCanceled:
			n++
		}
	}
	return n
}

// Failures 失败的动作（日志汇总用）
func (r *SyncReport) Failures() []Action {
	var out []Action
	for _, a := range append(append([]Action{}, r.Entries...), r.Exits...) {
		if a.Kind == ActionFailed {
			out = append(out, a)
		}
	}
	return out
}
