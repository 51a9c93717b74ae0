package db

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 定义了用户模型
// UID 是交给账本核心的不透明稳定标识，数值主键不对外暴露
type User struct {
	gorm.Model
	UID      string `gorm:"size:36;uniqueIndex;not null"`
	Username string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
}

// BeforeCreate 为新用户生成 UID
func (u *User) BeforeCreate(*gorm.DB) error {
	if strings.TrimSpace(u.UID) == "" {
		u.UID = uuid.NewString()
	}
	return nil
}
