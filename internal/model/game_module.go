package model

import "time"

// GameModule 游戏模块目录，completion 记录通过 module_id 关联到这里
// swagger:model GameModule
type GameModule struct {
	ModuleID  string    `gorm:"size:100;primaryKey" json:"moduleId"`
	Subject   string    `gorm:"size:50;not null;index" json:"subject"`
	Class     int       `gorm:"not null" json:"class"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	TitleOdia string    `gorm:"size:300" json:"titleOdia"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (GameModule) TableName() string {
	return "game_modules"
}
