package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/betbot/finbot/internal/domain"
	"github.com/betbot/finbot/internal/metrics"
	"github.com/betbot/finbot/internal/ports"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "portfolio_manager")

// investedThreshold 钱包余额超过该值即视为已持仓（交易后的尘埃余额不算）
var defaultInvestedThreshold = decimal.RequireFromString("0.002")

// defaultPriceTolerance 入场/退出价格比较的相对容差（0.5%）
var defaultPriceTolerance = decimal.RequireFromString("0.005")

// Gateway 下单/撤单能力（live 或 simulated 由外部注入，没有全局开关）
type Gateway interface {
	ports.OrderPlacer
	ports.OrderCanceler
}

// Config Manager 的风险与行为参数
type Config struct {
	AccountID          string
	MaxLossPerPosition decimal.Decimal // 单仓位最大亏损占组合价值的比例
	PriceTolerance     decimal.Decimal // 为零时取默认 0.005
	InvestedThreshold  decimal.Decimal // 为零时取默认 0.002
}

// Manager 组合对账编排器：把期望的入场/退出集合收敛到交易所的真实挂单状态。
//
// 单周期内完全同步执行：每个下单/撤单都阻塞到交易所确认后才进行下一个动作。
// ctx 取消会中止当前对账循环的剩余部分，已确认的动作不回滚——下一个周期
// 会从头重新 diff 并继续收敛，部分完成是可接受、可恢复的状态。
type Manager struct {
	mode     TradingMode
	gateway  Gateway
	orders   ports.OpenOrdersSource
	wallets  ports.WalletSource
	recorder ports.ValueRecorder // 可为 nil（不落库）
	sizer    *Sizer

	accountID         string
	priceTolerance    decimal.Decimal
	investedThreshold decimal.Decimal

	mu         sync.RWMutex
	lastReport *SyncReport
}

func NewManager(mode TradingMode, gateway Gateway, orders ports.OpenOrdersSource, wallets ports.WalletSource, recorder ports.ValueRecorder, cfg Config) *Manager {
	tolerance := cfg.PriceTolerance
	if tolerance.IsZero() {
		tolerance = defaultPriceTolerance
	}
	threshold := cfg.InvestedThreshold
	if threshold.IsZero() {
		threshold = defaultInvestedThreshold
	}
	return &Manager{
		mode:              mode,
		gateway:           gateway,
		orders:            orders,
		wallets:           wallets,
		recorder:          recorder,
		sizer:             NewSizer(mode, wallets, cfg.MaxLossPerPosition),
		accountID:         cfg.AccountID,
		priceTolerance:    tolerance,
		investedThreshold: threshold,
	}
}

// SyncPortfolio 每个策略 tick 调用一次的唯一入口。
//
// 顺序是正确性要求而非优化：入场对账必须先完成，退出单的卖出数量
// 才能从准确的持仓读出。最后快照组合 USD 价值并交给持久层。
//
// 只有配置/估值错误和 ctx 取消会让整个周期失败；单币对的交易所错误
// 被记录进 report 后跳过，不阻塞其余组合的对账。
func (m *Manager) SyncPortfolio(ctx context.Context, entries map[string]domain.DesiredEntry, exits map[string]domain.DesiredExit) (*SyncReport, error) {
	metrics.SyncRuns.Add(1)
	report := &SyncReport{StartedAt: time.Now()}

	log.Infof("🔄 [组合同步] 开始：%d 个入场目标，%d 个退出目标（模式 %s）",
		len(entries), len(exits), m.mode.Name())

	if err := m.reconcileEntries(ctx, entries, report); err != nil {
		metrics.SyncErrors.Add(1)
		m.storeReport(report)
		return report, fmt.Errorf("reconcile entries: %w", err)
	}

	if err := m.reconcileExits(ctx, exits, report); err != nil {
		metrics.SyncErrors.Add(1)
		m.storeReport(report)
		return report, fmt.Errorf("reconcile exits: %w", err)
	}

	m.recordPortfolioValue(ctx, report)

	report.FinishedAt = time.Now()
	m.storeReport(report)

	if failures := report.Failures(); len(failures) > 0 {
		log.Warnf("⚠️ [组合同步] 完成，但有 %d 个币对本周期失败（下个周期重试）", len(failures))
	} else {
		log.Infof("✅ [组合同步] 完成：%d 个变更动作", report.Mutations())
	}
	return report, nil
}

// IsPositionOpen 指定货币是否已持仓（余额超过阈值）。
// 外部策略用它判断是否允许再次入场。
func (m *Manager) IsPositionOpen(ctx context.Context, currency domain.Currency) (bool, error) {
	wallets, err := m.wallets.ListWallets(ctx, m.mode.WalletKind())
	if err != nil {
		return false, fmt.Errorf("list wallets: %w", err)
	}
	for _, w := range wallets {
		if w.Currency == currency {
			return w.Balance.GreaterThan(m.investedThreshold), nil
		}
	}
	// 从未使用过的钱包不会出现在 API 返回里
	log.Debugf("[持仓查询] %s 钱包不存在，视为未持仓", currency)
	return false, nil
}

// LastReport 最近一次同步的聚合结果（控制面只读）
func (m *Manager) LastReport() *SyncReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

func (m *Manager) storeReport(report *SyncReport) {
	m.mu.Lock()
	m.lastReport = report
	m.mu.Unlock()
}

// recordPortfolioValue 周期末组合价值落库。
// 持久化失败只记日志，绝不让它弄挂同步周期。
func (m *Manager) recordPortfolioValue(ctx context.Context, report *SyncReport) {
	value, err := m.mode.TotalPortfolioValueUSD(ctx)
	if err != nil {
		log.Warnf("⚠️ [组合估值] 周期末估值失败，跳过本周期落库: %v", err)
		return
	}
	report.PortfolioValueUSD = value

	if m.recorder == nil {
		return
	}
	snapshot := domain.PortfolioValue{
		AccountID: m.accountID,
		USDValue:  value,
		Timestamp: time.Now(),
	}
	if err := m.recorder.RecordPortfolioValue(ctx, snapshot); err != nil {
		log.Errorf("❌ [组合估值] 落库失败: %v", err)
		return
	}
	metrics.SnapshotSaves.Add(1)
	report.ValueRecorded = true
	log.Debugf("[组合估值] 已记录 %s USD（账户 %s）", value.StringFixed(2), m.accountID)
}

// isInterrupted ctx 取消向上传播，其余错误按币对级别处理
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
