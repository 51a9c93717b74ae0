package service

import (
	"context"

	"github.com/nutrilog/internal/db"
)

// EntryRepository 是账本对摄入记录存储的最小依赖
type EntryRepository interface {
	Create(ctx context.Context, entry *db.Entry) error
	Get(ctx context.Context, userID, id string) (*db.Entry, error)
	ListByDate(ctx context.Context, userID, date string) ([]db.Entry, error)
	ListInRange(ctx context.Context, userID, start, end string) ([]db.Entry, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// FoodRepository 是食物目录的存储依赖，Merge 为合并写入而非整体替换
type FoodRepository interface {
	Merge(ctx context.Context, food db.Food) error
	Get(ctx context.Context, userID, id string) (*db.Food, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]db.Food, error)
}

// GoalRepository 是目标记录的存储依赖
type GoalRepository interface {
	Get(ctx context.Context, userID, key string) (*db.Goal, error)
	Patch(ctx context.Context, seed db.Goal, patch db.GoalPatch) error
}

// UserRepository 是身份服务的存储依赖
type UserRepository interface {
	Create(ctx context.Context, user *db.User) error
	FindByUsername(ctx context.Context, username string) (*db.User, error)
	FindByUID(ctx context.Context, uid string) (*db.User, error)
}

var (
	_ EntryRepository = (*db.EntryRepository)(nil)
	_ FoodRepository  = (*db.FoodRepository)(nil)
	_ GoalRepository  = (*db.GoalRepository)(nil)
	_ UserRepository  = (*db.UserRepository)(nil)
)
