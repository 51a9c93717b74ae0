package db

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry 记录一次饮食摄入
// Date 使用 YYYY-MM-DD 日期键，既用于按日分组也作为区间查询边界
// KcalTotal/ProteinTotal 在创建时计算并落库，之后不再重算
type Entry struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:64;not null;index:idx_entries_user_date,priority:1" json:"user_id"`
	Date         string    `gorm:"size:10;not null;index:idx_entries_user_date,priority:2" json:"date"`
	Food         string    `gorm:"not null" json:"food"`
	Servings     float64   `json:"servings"`
	KcalPer      float64   `json:"kcal_per"`
	ProteinPer   float64   `json:"protein_per"`
	KcalTotal    float64   `json:"kcal_total"`
	ProteinTotal float64   `json:"protein_total"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 固定表名
func (Entry) TableName() string {
	return "entries"
}

// BeforeCreate 由存储层分配不透明 ID
func (e *Entry) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(e.ID) == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
