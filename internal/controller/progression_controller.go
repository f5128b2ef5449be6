package controller

import (
	"stem_quest_backend/internal/service"
	"stem_quest_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressionController struct {
	ProgressionService *service.ProgressionService
	Hub                *service.SyncHub
}

func NewProgressionController(progressionService *service.ProgressionService, hub *service.SyncHub) *ProgressionController {
	return &ProgressionController{ProgressionService: progressionService, Hub: hub}
}

// userIDOrEmpty 上报类接口允许匿名，身份缺失时交给服务层丢弃
func userIDOrEmpty(ctx *gin.Context) string {
	if user := util.GetUserFromContext(ctx); user != nil {
		return user.UserID
	}
	return ""
}

type ProgressReportRequest struct {
	XP      int `json:"xp" binding:"min=0"`
	Credits int `json:"credits" binding:"min=0"`
}

// @Summary 上报游戏进度（XP/学分增量）
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param report body ProgressReportRequest true "增量"
// @Success 200 {object} util.Response
// @Router /api/progress/report [post]
func (c *ProgressionController) ReportProgress(ctx *gin.Context) {
	var req ProgressReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressionService.ReportProgress(userIDOrEmpty(ctx), req.XP, req.Credits)
	if err != nil {
		if err == util.ErrNegativeDelta {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

type AttemptRequest struct {
	Score     int  `json:"score" binding:"min=0"`
	Completed bool `json:"completed"`
}

// @Summary 上报一次模块尝试
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param moduleId path string true "模块ID"
// @Param attempt body AttemptRequest true "本次成绩"
// @Success 200 {object} util.Response
// @Router /api/modules/{moduleId}/attempts [post]
func (c *ProgressionController) ReportAttempt(ctx *gin.Context) {
	moduleID := ctx.Param("moduleId")
	if moduleID == "" {
		util.BadRequest(ctx, "module id is required")
		return
	}

	var req AttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	completion, err := c.ProgressionService.ReportAttempt(userIDOrEmpty(ctx), moduleID, req.Score, req.Completed)
	if err != nil {
		if err == util.ErrNegativeDelta {
			util.BadRequest(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, completion)
}

type BadgeGrantRequest struct {
	BadgeName  string `json:"badgeName" binding:"required"`
	ModuleName string `json:"moduleName" binding:"required"`
}

// @Summary 授予徽章（重复授予幂等）
// @Tags 徽章
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param badge body BadgeGrantRequest true "徽章信息"
// @Success 200 {object} util.Response
// @Router /api/badges [post]
func (c *ProgressionController) GrantBadge(ctx *gin.Context) {
	var req BadgeGrantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	badge, err := c.ProgressionService.GrantBadge(userIDOrEmpty(ctx), req.BadgeName, req.ModuleName)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, badge)
}

// @Summary 获取当前进度（累计XP/学分/连续天数）
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/progress [get]
func (c *ProgressionController) GetProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressionService.CurrentProgress(user.UserID)
	if err != nil {
		if err == util.ErrProgressNotFound {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 获取已获得的徽章列表
// @Tags 徽章
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/badges [get]
func (c *ProgressionController) GetBadges(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	badges, err := c.ProgressionService.CurrentBadges(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, badges)
}

// @Summary 获取所有模块的完成记录
// @Tags 模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/modules [get]
func (c *ProgressionController) ListModules(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	completions, err := c.ProgressionService.ListModules(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, completions)
}

// @Summary 获取单个模块的完成记录
// @Tags 模块
// @Produce json
// @Security BearerAuth
// @Param moduleId path string true "模块ID"
// @Success 200 {object} util.Response
// @Router /api/modules/{moduleId} [get]
func (c *ProgressionController) GetModuleStatus(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	completion, err := c.ProgressionService.CurrentModuleStatus(user.UserID, ctx.Param("moduleId"))
	if err != nil {
		if err == util.ErrModuleNotFound {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, completion)
}

// @Summary 刷新连续登录天数（会话开始时调用，同日幂等）
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/streak/refresh [post]
func (c *ProgressionController) RefreshStreak(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressionService.RefreshStreak(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 整体读取用户状态（档案+进度+徽章+模块完成）
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/snapshot [get]
func (c *ProgressionController) GetSnapshot(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	snapshot, err := c.ProgressionService.GetSnapshot(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, snapshot)
}

// @Summary 列出游戏模块目录
// @Tags 模块
// @Produce json
// @Param subject query string false "按学科过滤"
// @Success 200 {object} util.Response
// @Router /api/catalog/modules [get]
func (c *ProgressionController) ListCatalog(ctx *gin.Context) {
	modules, err := c.ProgressionService.ListCatalog(ctx.Query("subject"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, modules)
}

// @Summary 实时同步 WebSocket（连接即收到初始快照）
// @Tags 同步
// @Security BearerAuth
// @Router /api/sync [get]
func (c *ProgressionController) SyncWS(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	service.ServeWs(c.Hub, ctx.Writer, ctx.Request, user.UserID)
}
