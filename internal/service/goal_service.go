package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/nutrilog/internal/db"
)

const (
	// DefaultKcalTarget 是未设置目标时的每日能量目标
	DefaultKcalTarget = 2000
	// DefaultProteinTarget 是未设置目标时的每日蛋白质目标（克）
	DefaultProteinTarget = 150
)

// ErrInvalidGoal 当目标值为负数或非数字时返回
var ErrInvalidGoal = errors.New("invalid goal")

// GoalPatch 描述一次目标保存，nil 字段保持原值
type GoalPatch struct {
	KcalTarget    *float64
	ProteinTarget *float64
}

// GoalService 读写用户唯一的目标记录，缺失时回退默认值
type GoalService struct {
	goals  GoalRepository
	stamps *stampSource
}

// NewGoalService 构造 GoalService
func NewGoalService(goals GoalRepository, clk clock.Clock) *GoalService {
	return &GoalService{goals: goals, stamps: newStampSource(clk)}
}

// DefaultGoal 返回用户的默认目标
func DefaultGoal(userID string) db.Goal {
	return db.Goal{
		UserID:        userID,
		Key:           db.DefaultGoalKey,
		KcalTarget:    DefaultKcalTarget,
		ProteinTarget: DefaultProteinTarget,
	}
}

// Get 读取目标，记录不存在时返回默认值
func (s *GoalService) Get(ctx context.Context, userID string) (db.Goal, error) {
	if strings.TrimSpace(userID) == "" {
		return db.Goal{}, ErrMissingUser
	}

	goal, err := s.goals.Get(ctx, userID, db.DefaultGoalKey)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return DefaultGoal(userID), nil
		}
		return db.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return *goal, nil
}

// Save 合并保存目标：只覆盖提供的字段，首次保存时缺省字段取默认值
func (s *GoalService) Save(ctx context.Context, userID string, patch GoalPatch) (db.Goal, error) {
	if strings.TrimSpace(userID) == "" {
		return db.Goal{}, ErrMissingUser
	}
	if patch.KcalTarget != nil && !validAmount(*patch.KcalTarget) {
		return db.Goal{}, fmt.Errorf("%w: kcal target must be a non-negative number", ErrInvalidGoal)
	}
	if patch.ProteinTarget != nil && !validAmount(*patch.ProteinTarget) {
		return db.Goal{}, fmt.Errorf("%w: protein target must be a non-negative number", ErrInvalidGoal)
	}

	seed := DefaultGoal(userID)
	if patch.KcalTarget != nil {
		seed.KcalTarget = *patch.KcalTarget
	}
	if patch.ProteinTarget != nil {
		seed.ProteinTarget = *patch.ProteinTarget
	}

	if err := s.goals.Patch(ctx, seed, db.GoalPatch{
		KcalTarget:    patch.KcalTarget,
		ProteinTarget: patch.ProteinTarget,
		UpdatedAt:     s.stamps.Next(),
	}); err != nil {
		return db.Goal{}, fmt.Errorf("save goal: %w", err)
	}

	return s.Get(ctx, userID)
}
