package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stem_quest_backend/internal/config"
	"stem_quest_backend/internal/controller"
	"stem_quest_backend/internal/repository"
	"stem_quest_backend/internal/service"
	"stem_quest_backend/pkg/database"
	"stem_quest_backend/pkg/logger"
	"stem_quest_backend/pkg/monitoring"
	"stem_quest_backend/pkg/security"
	"stem_quest_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services
}

// ReloadConfig 配置文件热更新回调。已经建立的连接和中间件不重建，
// 只替换后续读取配置的入口
func (a *App) ReloadConfig(cfg *config.Config) {
	a.Config = cfg
	logger.Log.Info("Configuration reloaded")
}

type repositories struct {
	profile    *repository.ProfileRepository
	progress   *repository.ProgressRepository
	badge      *repository.BadgeRepository
	completion *repository.ModuleCompletionRepository
	gameModule *repository.GameModuleRepository
}

type services struct {
	progression *service.ProgressionService
	syncHub     *service.SyncHub
}

type controllers struct {
	progression *controller.ProgressionController
	profile     *controller.ProfileController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		profile:    repository.NewProfileRepository(db),
		progress:   repository.NewProgressRepository(db),
		badge:      repository.NewBadgeRepository(db),
		completion: repository.NewModuleCompletionRepository(db),
		gameModule: repository.NewGameModuleRepository(db),
	}
}

func (a *App) initServices(repos *repositories, rdb *redis.Client) *services {
	s := &services{}

	s.progression = service.NewProgressionService(
		repos.profile,
		repos.progress,
		repos.badge,
		repos.completion,
		repos.gameModule,
	)

	s.syncHub = service.NewSyncHub(rdb, s.progression)
	s.progression.Publisher = s.syncHub
	go s.syncHub.Run()

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		progression: controller.NewProgressionController(s.progression, s.syncHub),
		profile:     controller.NewProfileController(s.progression),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// release 模式下默认不自动迁移，需要 -migrate 显式开启
	migrate := cfg.Server.Mode != "release" || cfg.ForceMigrate
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	// 只迁移模式下不再启动其余组件
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, rdb)
	app.services = services
	controllers := app.initControllers(services, db)

	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("stem-quest", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 先断开同步会话，避免关闭期间还有快照在推送
	if a.services != nil && a.services.syncHub != nil {
		a.services.syncHub.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
