package db

import "time"

// Food 是按名称 slug 去重的食物目录项，用于快速复用营养数值
// (UserID, ID) 组成联合主键，同一用户同一 slug 至多一条
type Food struct {
	UserID     string    `gorm:"primaryKey;size:64" json:"-"`
	ID         string    `gorm:"primaryKey;size:191" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	KcalPer    float64   `json:"kcal_per"`
	ProteinPer float64   `json:"protein_per"`
	LastUsedAt time.Time `gorm:"index" json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName 固定表名
func (Food) TableName() string {
	return "foods"
}
