package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lmp_backend/internal/config"
	"lmp_backend/internal/controller"
	"lmp_backend/internal/repository"
	"lmp_backend/internal/service"
	"lmp_backend/internal/util"
	"lmp_backend/pkg/database"
	"lmp_backend/pkg/logger"
	"lmp_backend/pkg/monitoring"
	"lmp_backend/pkg/security"
	"lmp_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	test       *repository.TestRepository
	subject    *repository.SubjectRepository
	user       *repository.UserRepository
	slot       *repository.AnswerOnTestQuestionRepository
	passResult *repository.TestPassResultRepository
	unlock     *repository.TestUnlockRepository
	tx         *repository.Transactor
}

type services struct {
	passing      *service.TestPassingService
	results      *service.TestResultsService
	redisLocker  *service.RedisSessionLocker
	resultsCache *service.RedisResultsCache
}

type controllers struct {
	passing *controller.TestPassingController
	results *controller.TestResultsController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 由配置监听器调用
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

// IssueToken 为已有用户签发访问令牌，供没有登录服务的环境联调使用
func (a *App) IssueToken(ctx context.Context, userID uint) (string, error) {
	user, err := repository.NewUserRepository(a.DB).FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return util.GenerateJWT(user, a.Config.JWT.Secret, a.Config.JWT.ExpireTime)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		test:       repository.NewTestRepository(db),
		subject:    repository.NewSubjectRepository(db),
		user:       repository.NewUserRepository(db),
		slot:       repository.NewAnswerOnTestQuestionRepository(db),
		passResult: repository.NewTestPassResultRepository(db),
		unlock:     repository.NewTestUnlockRepository(db),
		tx:         repository.NewTransactor(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	var locker service.SessionLocker
	if cfg.Testing.LockBackend == util.LockBackendRedis && rdb != nil {
		s.redisLocker = service.NewRedisSessionLocker(rdb, cfg.Testing.LockTTL(), cfg.Testing.LockWait())
		locker = s.redisLocker
	} else {
		locker = service.NewLocalSessionLocker()
	}

	// 接口变量不能直接接收 nil 指针
	var cache service.ResultsCache
	if rdb != nil {
		s.resultsCache = service.NewRedisResultsCache(rdb, cfg.Testing.RealtimeCacheTTL())
		cache = s.resultsCache
	}

	s.passing = service.NewTestPassingService(
		repos.test,
		repos.user,
		repos.slot,
		repos.passResult,
		repos.unlock,
		repos.tx,
		locker,
	)
	s.results = service.NewTestResultsService(
		repos.test,
		repos.subject,
		repos.user,
		repos.slot,
		repos.passResult,
		repos.unlock,
		cache,
	)

	logger.Log.Info("Test passing services initialized",
		zap.String("lockBackend", cfg.Testing.LockBackend),
		zap.Bool("realtimeCache", cache != nil))

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		passing: controller.NewTestPassingController(s.passing),
		results: controller.NewTestResultsController(s.results),
		health:  controller.NewHealthController(db, rdb),
	}
}

// applyTestingConfig 热加载只更新计时参数，锁后端需要重启才能切换
func (a *App) applyTestingConfig(cfg *config.Config) {
	if a.services == nil {
		return
	}
	if a.services.redisLocker != nil {
		a.services.redisLocker.SetTimings(cfg.Testing.LockTTL(), cfg.Testing.LockWait())
	}
	if a.services.resultsCache != nil {
		a.services.resultsCache.SetTTL(cfg.Testing.RealtimeCacheTTL())
	}
	if cfg.Testing.LockBackend != a.Config.Testing.LockBackend {
		logger.Log.Warn("testing.lock_backend changed, restart required",
			zap.String("current", a.Config.Testing.LockBackend),
			zap.String("configured", cfg.Testing.LockBackend))
	}
	logger.Log.Info("Testing config reloaded",
		zap.Duration("lockTTL", cfg.Testing.LockTTL()),
		zap.Duration("lockWait", cfg.Testing.LockWait()),
		zap.Duration("realtimeCacheTTL", cfg.Testing.RealtimeCacheTTL()))
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

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)
	app.RegisterConfigCallback(app.applyTestingConfig)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("lmp-test-passing", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	app.registerRoutes(router, controllers, cfg)

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

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
