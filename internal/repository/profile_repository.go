package repository

import (
	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/util"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

func (r *ProfileRepository) FindByUserID(userID string) (*model.Profile, error) {
	var profile model.Profile
	err := r.DB.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, util.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdateLanguage(userID string, lang model.Language) error {
	result := r.DB.Model(&model.Profile{}).
		Where("user_id = ?", userID).
		Update("preferred_language", lang)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return util.ErrProfileNotFound
	}
	return nil
}
