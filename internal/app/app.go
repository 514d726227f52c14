package app

import (
	"context"
	"learning_dropout_backend/internal/config"
	"learning_dropout_backend/internal/controller"
	"learning_dropout_backend/internal/repository"
	"learning_dropout_backend/internal/service"
	"learning_dropout_backend/pkg/configwatcher"
	"learning_dropout_backend/pkg/database"
	"learning_dropout_backend/pkg/logger"
	"learning_dropout_backend/pkg/monitoring"
	"learning_dropout_backend/pkg/security"
	"learning_dropout_backend/pkg/tracing"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	enrollment  *repository.EnrollmentRepository
	learningLog *repository.LearningLogRepository
	analysis    *repository.AnalysisRepository
}

type services struct {
	auth     *service.AuthService
	course   *service.CourseService
	engine   *service.DropoutService
	analysis *service.AnalysisService
	storage  *service.StorageService
	report   *service.ReportService
}

type controllers struct {
	auth     *controller.AuthController
	analysis *controller.AnalysisController
	admin    *controller.AdminController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		learningLog: repository.NewLearningLogRepository(db),
		analysis:    repository.NewAnalysisRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	engine, err := service.NewDropoutService(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	s.engine = engine

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course)
	s.analysis = service.NewAnalysisService(repos.learningLog, repos.analysis, repos.course, repos.enrollment, engine, rdb, cfg.Analysis)
	s.report = service.NewReportService(s.analysis, storage)

	return s, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	generatorFactory := func(seed int64) *service.DataGeneratorService {
		return service.NewDataGeneratorService(
			rand.New(rand.NewSource(seed)),
			repos.course,
			repos.enrollment,
			repos.learningLog,
		)
	}

	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		analysis: controller.NewAnalysisController(s.analysis, s.course),
		admin:    controller.NewAdminController(s.report, s.course, generatorFactory),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// watchConfig 配置热更新：运行时调整危险阈值与 Top-K
func (a *App) watchConfig() {
	go configwatcher.WatchConfig("configs/config.yaml", func(cfg *config.Config) {
		a.services.engine.ApplyConfig(cfg.Analysis)
		logger.Log.Info("analysis config reloaded",
			zap.Float64("dangerThreshold", cfg.Analysis.DangerThreshold),
			zap.Int("reasonTopK", cfg.Analysis.ReasonTopK))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, database.ShouldMigrate(cfg.Server.Mode, cfg.ForceMigrate))
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services, err := app.initServices(repos, cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("dropout-analytics", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/exports", cfg.Storage.LocalPath)
	}

	app.watchConfig()

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
