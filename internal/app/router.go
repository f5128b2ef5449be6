package app

import (
	"stem_quest_backend/docs"
	"stem_quest_backend/internal/config"
	"stem_quest_backend/internal/middleware"
	"stem_quest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.GET("/catalog/modules", c.progression.ListCatalog)
	}

	// 2. 上报类路由：尽力解析身份，缺失时静默丢弃而不是报错，
	// 游戏模块的上报绝不能因为登录态问题打断游戏
	report := router.Group("/api")
	report.Use(middleware.TryAuthMiddleware(cfg))
	{
		report.POST("/progress/report", c.progression.ReportProgress)
		report.POST("/modules/:moduleId/attempts", c.progression.ReportAttempt)
		report.POST("/badges", c.progression.GrantBadge)
	}

	// 3. 读取与会话类路由：强制认证
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/progress", c.progression.GetProgress)
		authGroup.GET("/badges", c.progression.GetBadges)
		authGroup.GET("/modules", c.progression.ListModules)
		authGroup.GET("/modules/:moduleId", c.progression.GetModuleStatus)
		authGroup.POST("/streak/refresh", c.progression.RefreshStreak)
		authGroup.GET("/snapshot", c.progression.GetSnapshot)
		authGroup.GET("/sync", c.progression.SyncWS)

		authGroup.GET("/profile", c.profile.GetProfile)
		authGroup.PUT("/profile/language", c.profile.UpdateLanguage)
	}
}
