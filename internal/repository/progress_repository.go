package repository

import (
	"time"

	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindByUserID(userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := r.DB.Where("user_id = ?", userID).First(&progress).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrProgressNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// GetOrCreate 首次上报时懒创建零值行；并发创建撞到唯一键时改为读取已有行
func (r *ProgressRepository) GetOrCreate(userID string) (*model.UserProgress, error) {
	progress, err := r.FindByUserID(userID)
	if err == nil {
		return progress, nil
	}
	if err != util.ErrProgressNotFound {
		return nil, err
	}

	fresh := &model.UserProgress{UserID: userID}
	if err := r.DB.Create(fresh).Error; err != nil {
		if IsDuplicateKey(err) {
			return r.FindByUserID(userID)
		}
		return nil, err
	}
	return fresh, nil
}

// AddDeltas 增量在数据库侧原子累加，避免并发上报互相覆盖；
// 返回的是更新后重新读取的持久化结果
func (r *ProgressRepository) AddDeltas(userID string, xp, credits int) (*model.UserProgress, error) {
	err := r.DB.Model(&model.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_xp":      gorm.Expr("total_xp + ?", xp),
			"total_credits": gorm.Expr("total_credits + ?", credits),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(userID)
}

func (r *ProgressRepository) UpdateStreak(userID string, streak int, lastLogin time.Time) (*model.UserProgress, error) {
	err := r.DB.Model(&model.UserProgress{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"current_streak": streak,
			"last_login":     lastLogin,
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserID(userID)
}
