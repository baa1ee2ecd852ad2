package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/betbot/finbot/internal/controlplane/server"
	"github.com/betbot/finbot/internal/execution"
	"github.com/betbot/finbot/internal/infrastructure/bitfinex"
	"github.com/betbot/finbot/internal/portfolio"
	"github.com/betbot/finbot/internal/storage/portfoliodb"
	"github.com/betbot/finbot/internal/targets"
	"github.com/betbot/finbot/pkg/config"
	"github.com/betbot/finbot/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	targetsPath := flag.String("targets", "", "目标文件路径（覆盖配置中的 targets_file）")
	once := flag.Bool("once", false, "只执行一次同步后退出")
	flag.Parse()

	// .env 可选，交给环境变量覆盖
	_ = godotenv.Load()

	if _, err := os.Stat(*configPath); err != nil {
		*configPath = ""
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     14,
	}); err != nil {
		logger.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}

	if *targetsPath == "" {
		*targetsPath = cfg.TargetsFile
	}

	venue := bitfinex.NewClient(bitfinex.Config{
		BaseURL:   cfg.Venue.BaseURL,
		APIKey:    cfg.Venue.APIKey,
		APISecret: cfg.Venue.APISecret,
	})

	var gateway portfolio.Gateway
	if cfg.DryRun {
		logger.Warnf("⚠️ 纸交易模式：订单动作只打印日志，不会触碰交易所")
		gateway = execution.NewSimulatedGateway()
	} else {
		gateway = execution.NewLiveGateway(venue)
	}

	var mode portfolio.TradingMode
	switch cfg.TradingMode {
	case "margin":
		mode = portfolio.NewMarginMode(venue, venue, decimal.NewFromFloat(cfg.Risk.MarginInvestmentRate))
	default:
		mode = portfolio.NewExchangeMode(venue, venue, decimal.NewFromFloat(cfg.Risk.ExchangeInvestmentRate))
	}

	store, err := portfoliodb.Open(cfg.DBPath)
	if err != nil {
		logger.Errorf("打开数据库失败: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	manager := portfolio.NewManager(mode, gateway, venue, venue, store, portfolio.Config{
		AccountID:          cfg.AccountID,
		MaxLossPerPosition: decimal.NewFromFloat(cfg.Risk.MaxLossPerPosition),
		PriceTolerance:     decimal.NewFromFloat(cfg.Risk.PriceTolerance),
		InvestedThreshold:  decimal.NewFromFloat(cfg.Risk.InvestedThreshold),
	})

	srv := server.New(server.Config{Addr: cfg.ServerAddr, AccountID: cfg.AccountID}, store, manager)
	go func() {
		logger.Infof("🌐 控制面已启动: %s", cfg.ServerAddr)
		if err := srv.Start(); err != nil {
			logger.Errorf("控制面异常退出: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("收到信号 %v，准备退出", sig)
		cancel()
	}()

	logger.Infof("🚀 组合对账引擎已启动: mode=%s interval=%s targets=%s",
		mode.Name(), cfg.SyncInterval, *targetsPath)

	runSync(ctx, manager, *targetsPath)
	if !*once {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-ticker.C:
				runSync(ctx, manager, *targetsPath)
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Infof("👋 已退出")
}

// runSync 读取目标文件并执行一轮对账；单轮失败不终止进程
func runSync(ctx context.Context, manager *portfolio.Manager, targetsPath string) {
	if ctx.Err() != nil {
		return
	}

	entries, exits, err := targets.Load(targetsPath)
	if err != nil {
		logger.Errorf("❌ 读取目标文件失败: %v", err)
		return
	}

	report, err := manager.SyncPortfolio(ctx, entries, exits)
	if err != nil {
		logger.Errorf("❌ 同步失败: %v", err)
		return
	}
	logger.Infof("✅ 同步完成: 动作 %d 个, 失败 %d 个, 组合价值 %s USD",
		report.Mutations(), len(report.Failures()), report.PortfolioValueUSD.String())
}
