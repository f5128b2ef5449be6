package repository

import (
	"time"

	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

// FindByUserID 按获得时间倒序返回，最新的徽章排在最前面
func (r *BadgeRepository) FindByUserID(userID string) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Where("user_id = ?", userID).
		Order("earned_date DESC").
		Find(&badges).Error
	if err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *BadgeRepository) FindByTriple(userID, badgeName, moduleName string) (*model.Badge, error) {
	var badge model.Badge
	err := r.DB.Where("user_id = ? AND badge_name = ? AND module_name = ?",
		userID, badgeName, moduleName).First(&badge).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &badge, nil
}

// Create 插入徽章。唯一索引 (user_id, badge_name, module_name) 才是去重的
// 最终依据：并发的相同授予撞到唯一键时返回 ErrBadgeAlreadyGranted
func (r *BadgeRepository) Create(userID, badgeName, moduleName string) (*model.Badge, error) {
	badge := &model.Badge{
		UserID:     userID,
		BadgeName:  badgeName,
		ModuleName: moduleName,
		EarnedDate: time.Now().UTC(),
	}
	if err := r.DB.Create(badge).Error; err != nil {
		if IsDuplicateKey(err) {
			return nil, util.ErrBadgeAlreadyGranted
		}
		return nil, err
	}
	return badge, nil
}
