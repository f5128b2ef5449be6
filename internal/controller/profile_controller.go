package controller

import (
	"stem_quest_backend/internal/model"
	"stem_quest_backend/internal/service"
	"stem_quest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	ProgressionService *service.ProgressionService
}

func NewProfileController(progressionService *service.ProgressionService) *ProfileController {
	return &ProfileController{ProgressionService: progressionService}
}

// @Summary 获取学生档案
// @Tags 档案
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/profile [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.ProgressionService.GetProfile(user.UserID)
	if err != nil {
		if err == util.ErrProfileNotFound {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

type LanguageRequest struct {
	Language model.Language `json:"language" binding:"required"`
}

// @Summary 设置界面语言偏好
// @Tags 档案
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LanguageRequest true "english 或 odia"
// @Success 200 {object} util.Response
// @Router /api/profile/language [put]
func (c *ProfileController) UpdateLanguage(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LanguageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ProgressionService.SetLanguage(user.UserID, req.Language); err != nil {
		switch err {
		case util.ErrInvalidLanguage:
			util.BadRequest(ctx, err.Error())
		case util.ErrProfileNotFound:
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"language": req.Language})
}
