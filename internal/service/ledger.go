package service

import (
	"time"

	"github.com/juju/clock"
	"github.com/nutrilog/internal/db"
	"gorm.io/gorm"
)

// Repositories 汇总账本依赖的全部存储
type Repositories struct {
	Entries EntryRepository
	Foods   FoodRepository
	Goals   GoalRepository
	Users   UserRepository
}

// GormRepositories 返回基于 gorm 连接的存储实现
func GormRepositories(gdb *gorm.DB) Repositories {
	return Repositories{
		Entries: db.NewEntryRepository(gdb),
		Foods:   db.NewFoodRepository(gdb),
		Goals:   db.NewGoalRepository(gdb),
		Users:   db.NewUserRepository(gdb),
	}
}

// LedgerOptions 控制账本服务的时钟、时区与令牌参数
type LedgerOptions struct {
	Clock            clock.Clock
	Location         *time.Location
	JWTSecret        string
	TokenTTL         time.Duration
	RecentFoodsLimit int
}

// Ledger 把各服务按依赖关系组装在一起，HTTP 与命令行共用
type Ledger struct {
	Entries *EntryService
	Foods   *FoodService
	Goals   *GoalService
	Auth    *AuthService
	Window  *DateWindow
}

// NewLedger 组装账本服务
func NewLedger(repos Repositories, opts LedgerOptions) *Ledger {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}

	window := NewDateWindow(clk, opts.Location)
	foods := NewFoodService(repos.Foods, clk)
	if opts.RecentFoodsLimit > 0 {
		foods.SetDefaultLimit(opts.RecentFoodsLimit)
	}
	goals := NewGoalService(repos.Goals, clk)

	return &Ledger{
		Entries: NewEntryService(repos.Entries, foods, goals, window, clk),
		Foods:   foods,
		Goals:   goals,
		Auth:    NewAuthService(repos.Users, opts.JWTSecret, opts.TokenTTL, clk),
		Window:  window,
	}
}
