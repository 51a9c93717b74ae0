package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/config"
	"github.com/nutrilog/internal/db"
	"github.com/nutrilog/internal/handler"
	"github.com/nutrilog/internal/router"
	"github.com/nutrilog/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to resolve timezone: %v", err)
	}

	ledger := service.NewLedger(service.GormRepositories(db.DB), service.LedgerOptions{
		Location:         loc,
		JWTSecret:        cfg.JWTSecret,
		TokenTTL:         cfg.TokenTTL,
		RecentFoodsLimit: cfg.RecentFoodsLimit,
	})

	// 按配置创建初始账号
	if err := ledger.Auth.EnsureUser(context.Background(), cfg.BootstrapUserName, cfg.BootstrapPassword); err != nil {
		log.Fatalf("failed to ensure bootstrap user: %v", err)
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(handler.NewAPI(ledger, cfg.HistoryDays), cfg.SessionSecret)
	log.Printf("nutrilog listening on %s (database %s)", cfg.ListenAddr, cfg.DatabasePath)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
