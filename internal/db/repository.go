package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 在存储层找不到记录时返回
var ErrNotFound = errors.New("record not found")

// GoalPatch 描述目标记录的部分更新，nil 字段保持原值
type GoalPatch struct {
	KcalTarget    *float64
	ProteinTarget *float64
	UpdatedAt     time.Time
}

// EntryRepository 基于 gorm 的摄入记录存储
type EntryRepository struct {
	db *gorm.DB
}

// NewEntryRepository 构造 EntryRepository
func NewEntryRepository(gdb *gorm.DB) *EntryRepository {
	return &EntryRepository{db: gdb}
}

// Create 写入一条摄入记录，ID 由 BeforeCreate 分配
func (r *EntryRepository) Create(ctx context.Context, entry *Entry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// Get 按用户与 ID 读取记录
func (r *EntryRepository) Get(ctx context.Context, userID, id string) (*Entry, error) {
	var entry Entry
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &entry, nil
}

// ListByDate 返回某日全部记录，按创建时间倒序
func (r *EntryRepository) ListByDate(ctx context.Context, userID, date string) ([]Entry, error) {
	var entries []Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries by date: %w", err)
	}
	return entries, nil
}

// ListInRange 返回闭区间 [start, end] 内的记录，先按日期再按创建时间倒序
func (r *EntryRepository) ListInRange(ctx context.Context, userID, start, end string) ([]Entry, error) {
	var entries []Entry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("date >= ? AND date <= ?", start, end).
		Order("date DESC").
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries in range: %w", err)
	}
	return entries, nil
}

// Delete 删除记录，返回是否确实删除了数据；记录不存在不视为错误
func (r *EntryRepository) Delete(ctx context.Context, userID, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&Entry{})
	if result.Error != nil {
		return false, fmt.Errorf("delete entry: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FoodRepository 基于 gorm 的食物目录存储
type FoodRepository struct {
	db *gorm.DB
}

// NewFoodRepository 构造 FoodRepository
func NewFoodRepository(gdb *gorm.DB) *FoodRepository {
	return &FoodRepository{db: gdb}
}

// Merge 以合并方式写入：覆盖名称、营养值与 last_used_at，保留其余字段
func (r *FoodRepository) Merge(ctx context.Context, food Food) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "kcal_per", "protein_per", "last_used_at", "updated_at"}),
	}).Create(&food).Error; err != nil {
		return fmt.Errorf("merge food: %w", err)
	}
	return nil
}

// Get 读取单个食物
func (r *FoodRepository) Get(ctx context.Context, userID, id string) (*Food, error) {
	var food Food
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&food).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get food: %w", err)
	}
	return &food, nil
}

// ListRecent 按最近使用时间倒序返回前 limit 个食物
func (r *FoodRepository) ListRecent(ctx context.Context, userID string, limit int) ([]Food, error) {
	var foods []Food
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_used_at DESC").
		Limit(limit).
		Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("list recent foods: %w", err)
	}
	return foods, nil
}

// GoalRepository 基于 gorm 的目标存储
type GoalRepository struct {
	db *gorm.DB
}

// NewGoalRepository 构造 GoalRepository
func NewGoalRepository(gdb *gorm.DB) *GoalRepository {
	return &GoalRepository{db: gdb}
}

// Get 读取目标记录，不存在时返回 ErrNotFound
func (r *GoalRepository) Get(ctx context.Context, userID, key string) (*Goal, error) {
	var goal Goal
	if err := r.db.WithContext(ctx).Where("user_id = ? AND goal_key = ?", userID, key).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return &goal, nil
}

// Patch 合并写入目标：记录不存在时插入 seed，存在时只更新 patch 中提供的字段
func (r *GoalRepository) Patch(ctx context.Context, seed Goal, patch GoalPatch) error {
	assignments := map[string]interface{}{"updated_at": patch.UpdatedAt}
	if patch.KcalTarget != nil {
		assignments["kcal_target"] = *patch.KcalTarget
	}
	if patch.ProteinTarget != nil {
		assignments["protein_target"] = *patch.ProteinTarget
	}

	seed.UpdatedAt = patch.UpdatedAt
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "goal_key"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&seed).Error; err != nil {
		return fmt.Errorf("patch goal: %w", err)
	}
	return nil
}

// UserRepository 基于 gorm 的用户存储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 构造 UserRepository
func NewUserRepository(gdb *gorm.DB) *UserRepository {
	return &UserRepository{db: gdb}
}

// Create 新建用户
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByUsername 按用户名查找
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// FindByUID 按对外标识查找
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*User, error) {
	return r.findOne(ctx, "uid = ?", uid)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
