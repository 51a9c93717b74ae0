package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/nutrilog/internal/db"
)

const (
	// DefaultRecentFoodsLimit 是最近食物列表的默认条数
	DefaultRecentFoodsLimit = 5
	maxRecentFoodsLimit     = 50
)

var (
	// ErrMissingUser 在调用方未提供用户标识时返回
	ErrMissingUser = errors.New("user id is required")
	// ErrInvalidFood 在食物营养值不合法时返回
	ErrInvalidFood = errors.New("invalid food")
)

// FoodService 维护按 slug 去重的食物目录
// 写入为无条件的后写覆盖，每个用户只有一个写入方
type FoodService struct {
	foods        FoodRepository
	stamps       *stampSource
	fallbackKey  func() string
	defaultLimit int
}

// NewFoodService 构造 FoodService
func NewFoodService(foods FoodRepository, clk clock.Clock) *FoodService {
	return &FoodService{
		foods:        foods,
		stamps:       newStampSource(clk),
		fallbackKey:  func() string { return "food-" + uuid.NewString() },
		defaultLimit: DefaultRecentFoodsLimit,
	}
}

// SetDefaultLimit 调整 Recent 在未指定 limit 时的条数
func (s *FoodService) SetDefaultLimit(limit int) {
	if limit <= 0 {
		limit = DefaultRecentFoodsLimit
	}
	s.defaultLimit = min(limit, maxRecentFoodsLimit)
}

// SetFallbackKey 替换 slug 为空时的目录键生成方式，主要面向测试场景。
func (s *FoodService) SetFallbackKey(fn func() string) {
	if fn == nil {
		fn = func() string { return "food-" + uuid.NewString() }
	}
	s.fallbackKey = fn
}

// Upsert 以合并方式写入目录项并刷新 last_used_at，返回写入后的记录
func (s *FoodService) Upsert(ctx context.Context, userID, name string, kcalPer, proteinPer float64) (*db.Food, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if !validAmount(kcalPer) || !validAmount(proteinPer) {
		return nil, fmt.Errorf("%w: nutrient values must be non-negative numbers", ErrInvalidFood)
	}

	now := s.stamps.Next()
	food := db.Food{
		UserID:     userID,
		ID:         FoodKey(name, s.fallbackKey),
		Name:       strings.TrimSpace(name),
		KcalPer:    kcalPer,
		ProteinPer: proteinPer,
		LastUsedAt: now,
		UpdatedAt:  now,
	}

	if err := s.foods.Merge(ctx, food); err != nil {
		return nil, fmt.Errorf("upsert food: %w", err)
	}

	saved, err := s.foods.Get(ctx, userID, food.ID)
	if err != nil {
		return nil, fmt.Errorf("reload food: %w", err)
	}
	return saved, nil
}

// Recent 返回最近使用的食物，limit<=0 时使用默认条数
func (s *FoodService) Recent(ctx context.Context, userID string, limit int) ([]db.Food, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	limit = min(limit, maxRecentFoodsLimit)

	foods, err := s.foods.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent foods: %w", err)
	}
	if foods == nil {
		foods = []db.Food{}
	}
	return foods, nil
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
