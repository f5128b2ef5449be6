package repository

import (
	"stem_quest_backend/internal/model"

	"gorm.io/gorm"
)

type GameModuleRepository struct {
	DB *gorm.DB
}

func NewGameModuleRepository(db *gorm.DB) *GameModuleRepository {
	return &GameModuleRepository{DB: db}
}

func (r *GameModuleRepository) ListAll() ([]model.GameModule, error) {
	var modules []model.GameModule
	err := r.DB.Order("subject ASC, module_id ASC").Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}

func (r *GameModuleRepository) ListBySubject(subject string) ([]model.GameModule, error) {
	var modules []model.GameModule
	err := r.DB.Where("subject = ?", subject).
		Order("module_id ASC").
		Find(&modules).Error
	if err != nil {
		return nil, err
	}
	return modules, nil
}
