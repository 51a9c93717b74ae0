package db

import "time"

// DefaultGoalKey 是每个用户唯一目标记录的键
const DefaultGoalKey = "default"

// Goal 记录用户的每日营养目标，仅用于展示对比
type Goal struct {
	UserID        string    `gorm:"primaryKey;size:64" json:"-"`
	Key           string    `gorm:"column:goal_key;primaryKey;size:32" json:"-"`
	KcalTarget    float64   `json:"kcal_target"`
	ProteinTarget float64   `json:"protein_target"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName 固定表名
func (Goal) TableName() string {
	return "goals"
}
