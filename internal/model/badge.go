package model

import "time"

// Badge (user, badge, module) 三元组唯一，徽章是事实而不是计数器
// swagger:model Badge
type Badge struct {
	UUIDBase
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_badge_module" json:"userId"`
	BadgeName  string    `gorm:"size:100;not null;uniqueIndex:idx_user_badge_module" json:"badgeName"`
	ModuleName string    `gorm:"size:100;not null;uniqueIndex:idx_user_badge_module" json:"moduleName"`
	EarnedDate time.Time `gorm:"not null" json:"earnedDate"`
}

func (Badge) TableName() string {
	return "badges"
}
