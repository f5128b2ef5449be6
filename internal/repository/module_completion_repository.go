package repository

import (
	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"

	"gorm.io/gorm"
)

type ModuleCompletionRepository struct {
	DB *gorm.DB
}

func NewModuleCompletionRepository(db *gorm.DB) *ModuleCompletionRepository {
	return &ModuleCompletionRepository{DB: db}
}

func (r *ModuleCompletionRepository) FindByUserAndModule(userID, moduleID string) (*model.ModuleCompletion, error) {
	var completion model.ModuleCompletion
	err := r.DB.Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&completion).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrModuleNotFound
		}
		return nil, err
	}
	return &completion, nil
}

func (r *ModuleCompletionRepository) FindByUserID(userID string) ([]model.ModuleCompletion, error) {
	var completions []model.ModuleCompletion
	err := r.DB.Where("user_id = ?", userID).
		Order("module_id ASC").
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}

// RecordAttempt 合并一次尝试。整个合并放在一条 UPDATE 里由数据库计算：
// attempts 基于最新持久化值自增，best_score 只增不减，completed 状态不可回退，
// 两次背靠背的尝试不会读到同一个旧值互相覆盖
func (r *ModuleCompletionRepository) RecordAttempt(userID, moduleID string, score int, completed bool) (*model.ModuleCompletion, error) {
	if err := r.ensureRow(userID, moduleID); err != nil {
		return nil, err
	}

	status := model.StatusInProgress
	if completed {
		status = model.StatusCompleted
	}

	err := r.DB.Model(&model.ModuleCompletion{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Updates(map[string]interface{}{
			"attempts":          gorm.Expr("attempts + 1"),
			"xp_earned":         gorm.Expr("xp_earned + ?", score),
			"best_score":        gorm.Expr("GREATEST(best_score, ?)", score),
			"completion_status": gorm.Expr("IF(completion_status = 'completed', 'completed', ?)", status),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndModule(userID, moduleID)
}

func (r *ModuleCompletionRepository) ensureRow(userID, moduleID string) error {
	row := &model.ModuleCompletion{
		UserID:           userID,
		ModuleID:         moduleID,
		CompletionStatus: model.StatusNotStarted,
	}
	err := r.DB.Create(row).Error
	if err != nil && !IsDuplicateKey(err) {
		return err
	}
	return nil
}
