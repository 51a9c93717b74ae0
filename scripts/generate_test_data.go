package main

import (
	"context"
	"fmt"
	"log"

	"github.com/nutrilog/internal/config"
	"github.com/nutrilog/internal/db"
	"github.com/nutrilog/internal/service"
)

const (
	demoUserName = "demo"
	demoPassword = "demo123"
	demoDays     = 14
	mealsPerDay  = 3
)

type sampleMeal struct {
	Food       string
	Servings   float64
	KcalPer    float64
	ProteinPer float64
}

var sampleMeals = []sampleMeal{
	{Food: "Oatmeal", Servings: 1, KcalPer: 150, ProteinPer: 5},
	{Food: "Banana", Servings: 2, KcalPer: 90, ProteinPer: 1.1},
	{Food: "Greek Yogurt", Servings: 1, KcalPer: 100, ProteinPer: 10},
	{Food: "Chicken Breast", Servings: 1.5, KcalPer: 165, ProteinPer: 31},
	{Food: "Brown Rice", Servings: 1, KcalPer: 216, ProteinPer: 5},
	{Food: "Boiled Eggs", Servings: 2, KcalPer: 78, ProteinPer: 6.3},
	{Food: "Salmon", Servings: 1, KcalPer: 208, ProteinPer: 20},
	{Food: "番茄炒蛋", Servings: 1, KcalPer: 180, ProteinPer: 9},
}

// 测试数据生成器
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置加载失败:", err)
	}
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("时区配置无效:", err)
	}

	ledger := service.NewLedger(service.GormRepositories(db.DB), service.LedgerOptions{
		Location:  loc,
		JWTSecret: cfg.JWTSecret,
	})

	fmt.Println("开始生成测试数据...")

	count, err := seedDemoLedger(context.Background(), ledger, demoUserName, demoPassword, demoDays)
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (密码: %s)\n", demoUserName, demoPassword)
	fmt.Printf("记录: 最近 %d 天共 %d 条\n", demoDays, count)
}

// seedDemoLedger 为演示账号写入最近 days 天的饮食记录与目标，返回写入条数
func seedDemoLedger(ctx context.Context, ledger *service.Ledger, username, password string, days int) (int, error) {
	if err := ledger.Auth.EnsureUser(ctx, username, password); err != nil {
		return 0, err
	}
	user, err := ledger.Auth.FindUser(ctx, username)
	if err != nil {
		return 0, err
	}

	count := 0
	for i, date := range ledger.Window.LastNDays(days) {
		for j := 0; j < mealsPerDay; j++ {
			meal := sampleMeals[(i*mealsPerDay+j)%len(sampleMeals)]
			result, err := ledger.Entries.AddEntry(ctx, user.UID, service.EntryInput{
				Date:       date,
				Food:       meal.Food,
				Servings:   meal.Servings,
				KcalPer:    meal.KcalPer,
				ProteinPer: meal.ProteinPer,
			})
			if err != nil {
				return count, fmt.Errorf("seed %s on %s: %w", meal.Food, date, err)
			}
			if result.CatalogErr != nil {
				log.Printf("食物目录更新失败 %s: %v", meal.Food, result.CatalogErr)
			}
			count++
		}
	}

	kcal, protein := 2200.0, 140.0
	if _, err := ledger.Goals.Save(ctx, user.UID, service.GoalPatch{KcalTarget: &kcal, ProteinTarget: &protein}); err != nil {
		return count, err
	}

	fmt.Println("✅ 演示数据创建完成")
	return count, nil
}
