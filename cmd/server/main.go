package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/finbot/internal/controlplane/server"
	"github.com/betbot/finbot/internal/storage/portfoliodb"
	"github.com/betbot/finbot/pkg/logger"
)

// 只读控制面的独立部署入口：不带交易引擎，仅暴露已落库的组合价值历史。
func main() {
	addr := flag.String("addr", ":8082", "监听地址")
	dbPath := flag.String("db", "data/portfolio.db", "sqlite 数据库路径")
	accountID := flag.String("account", "default", "默认账户 ID")
	flag.Parse()

	_ = godotenv.Load()

	store, err := portfoliodb.Open(*dbPath)
	if err != nil {
		logger.Errorf("打开数据库失败: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(server.Config{Addr: *addr, AccountID: *accountID}, store, nil)
	go func() {
		logger.Infof("🌐 控制面已启动: %s", *addr)
		if err := srv.Start(); err != nil {
			logger.Errorf("控制面异常退出: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
