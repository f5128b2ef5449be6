package model

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageOdia    Language = "odia"
)

func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageOdia:
		return true
	default:
		return false
	}
}

// Profile 由账号/设置模块创建和维护，本服务只读取（语言偏好除外）
// swagger:model Profile
type Profile struct {
	UUIDBase
	UserID            string   `gorm:"type:varchar(36);uniqueIndex;not null" json:"userId"`
	Name              string   `gorm:"size:100;not null" json:"name"`
	Class             int      `gorm:"default:6" json:"class"`
	PreferredLanguage Language `gorm:"type:enum('english','odia');default:'english'" json:"preferredLanguage"`
}

func (Profile) TableName() string {
	return "profiles"
}
