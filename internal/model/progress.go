package model

import "time"

// UserProgress 每个用户一行，首次上报进度时懒创建
// swagger:model UserProgress
type UserProgress struct {
	UUIDBase
	UserID        string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	TotalXP       int        `gorm:"default:0" json:"totalXp"`
	TotalCredits  int        `gorm:"default:0" json:"totalCredits"`
	CurrentStreak int        `gorm:"default:0" json:"currentStreak"` // 连续登录天数
	LastLogin     *time.Time `gorm:"type:date" json:"lastLogin"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
