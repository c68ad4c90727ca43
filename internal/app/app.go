package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyflow_backend/internal/config"
	"studyflow_backend/internal/controller"
	"studyflow_backend/internal/repository"
	"studyflow_backend/internal/service"
	"studyflow_backend/pkg/configwatcher"
	"studyflow_backend/pkg/database"
	"studyflow_backend/pkg/logger"
	"studyflow_backend/pkg/monitoring"
	"studyflow_backend/pkg/security"
	"studyflow_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	profile   *repository.ProfileRepository
	stats     *repository.StatsRepository
	retention *repository.RetentionRepository
	course    *repository.CourseRepository
	chat      *repository.ChatRepository
	file      *repository.FileRepository
	quiz      *repository.QuizRepository
	progress  *repository.ProgressRepository
}

type services struct {
	storage   *service.StorageService
	avatar    *service.AvatarService
	gemini    *service.GeminiService
	auth      *service.AuthService
	user      *service.UserService
	dashboard *service.DashboardService
	course    *service.CourseService
	file      *service.FileService
	chat      *service.ChatService
	quiz      *service.QuizService
	progress  *service.ProgressService
}

type controllers struct {
	auth     *controller.AuthController
	user     *controller.UserController
	course   *controller.CourseController
	file     *controller.FileController
	chat     *controller.ChatController
	quiz     *controller.QuizController
	progress *controller.ProgressController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		profile:   repository.NewProfileRepository(db),
		stats:     repository.NewStatsRepository(db),
		retention: repository.NewRetentionRepository(db),
		course:    repository.NewCourseRepository(db),
		chat:      repository.NewChatRepository(db, rdb),
		file:      repository.NewFileRepository(db),
		quiz:      repository.NewQuizRepository(db),
		progress:  repository.NewProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.avatar = service.NewAvatarService(s.storage)
	s.gemini = service.NewGeminiService(cfg.Gemini)
	s.auth = service.NewAuthService(repos.user, repos.profile, repos.stats, s.avatar, rdb, cfg.JWT)
	s.user = service.NewUserService(repos.user, repos.profile)
	s.dashboard = service.NewDashboardService(repos.user, repos.profile, repos.stats, repos.retention, repos.course)
	s.progress = service.NewProgressService(repos.stats, repos.retention, repos.progress, repos.course, repos.file, repos.chat)
	s.course = service.NewCourseService(repos.course, repos.progress)
	s.file = service.NewFileService(repos.file, repos.course, repos.stats, s.storage, s.gemini, s.progress)
	s.chat = service.NewChatService(repos.chat, repos.file, repos.course, s.gemini, s.progress)
	s.quiz = service.NewQuizService(repos.quiz, repos.file, repos.course, repos.chat, s.gemini, s.progress)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		user:     controller.NewUserController(s.user, s.dashboard),
		course:   controller.NewCourseController(s.course),
		file:     controller.NewFileController(s.file),
		chat:     controller.NewChatController(s.chat),
		quiz:     controller.NewQuizController(s.quiz),
		progress: controller.NewProgressController(s.progress),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(func(c *gin.Context) {
		c.Set("config", cfg)
		c.Next()
	})

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 600
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.ForceMigrate || cfg.MigrateOnly {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if cfg.MigrateOnly {
			logger.Log.Info("Migration finished, exiting")
			os.Exit(0)
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, caching and logout blacklist disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("studyflow", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, services)

	if cfg.Storage.Type == "local" || cfg.Storage.Type == "" {
		router.Static("/media", cfg.Storage.LocalPath)
	}

	// 配置文件热更新，回调方自行决定哪些字段可动态生效
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("Config reloaded")
		for _, cb := range app.configCallbacks {
			cb(updated)
		}
	})

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
