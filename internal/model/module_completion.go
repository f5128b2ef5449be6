package model

import "time"

type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "not_started"
	StatusInProgress CompletionStatus = "in_progress"
	StatusCompleted  CompletionStatus = "completed"
)

func (s CompletionStatus) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ModuleCompletion 记录用户在单个游戏模块上的完成情况，(user_id, module_id) 联合主键
// swagger:model ModuleCompletion
type ModuleCompletion struct {
	UserID           string           `gorm:"type:varchar(36);primaryKey" json:"userId"`
	ModuleID         string           `gorm:"size:100;primaryKey" json:"moduleId"`
	CompletionStatus CompletionStatus `gorm:"type:enum('not_started','in_progress','completed');default:'not_started'" json:"completionStatus"`
	XPEarned         int              `gorm:"default:0" json:"xpEarned"` // 该模块累计获得的 XP，与账号总 XP 独立维护
	Attempts         int              `gorm:"default:0" json:"attempts"`
	BestScore        int              `gorm:"default:0" json:"bestScore"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (ModuleCompletion) TableName() string {
	return "module_completion"
}

// ApplyAttempt 合并一次游戏尝试：次数 +1，最好成绩只增不减，
// completed 状态一旦达成不会因后续未完成的尝试而回退
func (m *ModuleCompletion) ApplyAttempt(score int, completed bool) {
	m.Attempts++
	m.XPEarned += score
	if score > m.BestScore {
		m.BestScore = score
	}
	if completed {
		m.CompletionStatus = StatusCompleted
	} else if m.CompletionStatus != StatusCompleted {
		m.CompletionStatus = StatusInProgress
	}
}
