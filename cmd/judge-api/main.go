package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codepractice/internal/common/cache"
	"codepractice/internal/common/db"
	commonmw "codepractice/internal/common/http/middleware"
	"codepractice/internal/common/mq"
	"codepractice/internal/common/storage"
	"codepractice/internal/gateway/middleware"
	gatewayService "codepractice/internal/gateway/service"
	"codepractice/internal/judge/gateway"
	"codepractice/internal/judge/language"
	"codepractice/internal/judge/poller"
	"codepractice/internal/judge/runner"
	"codepractice/internal/submit/controller"
	submitRepo "codepractice/internal/submit/repository"
	"codepractice/internal/submit/service"
	"codepractice/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_api.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load env file failed: %v\n", err)
		os.Exit(1)
	}

	appCfg, err := loadAppConfig(*configPath, os.Getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(appCfg); err != nil {
		logger.Error(context.Background(), "judge api exited", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(appCfg *AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mysqlDB, err := db.NewMySQLWithConfig(appCfg.Database)
	if err != nil {
		return fmt.Errorf("init database failed: %w", err)
	}
	defer func() {
		_ = mysqlDB.Close()
	}()
	health := map[string]controller.Pinger{"mysql": mysqlDB}

	var (
		cacheClient cache.Cache
		windowStore gatewayService.WindowStore
	)
	if appCfg.RedisEnabled() {
		redisCache, err := cache.NewRedisCacheWithConfig(appCfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis failed: %w", err)
		}
		defer func() {
			_ = redisCache.Close()
		}()
		cacheClient = redisCache
		windowStore = gatewayService.NewRedisWindowStore(redisCache)
		health["redis"] = redisCache
	} else {
		logger.Warn(ctx, "redis not configured, using in-process rate limit windows and no cache")
		local := gatewayService.NewLocalWindowStore()
		go sweepLocalWindows(ctx, local, defaultSweepInterval)
		windowStore = local
	}

	var objStorage storage.ObjectStorage
	if appCfg.MinIOEnabled() {
		minioStorage, err := storage.NewMinIOStorage(appCfg.MinIO)
		if err != nil {
			return fmt.Errorf("init minio failed: %w", err)
		}
		bucketCtx, cancel := context.WithTimeout(ctx, appCfg.Submit.Timeouts.Storage)
		err = minioStorage.EnsureBucket(bucketCtx, appCfg.Submit.SourceBucket)
		cancel()
		if err != nil {
			return fmt.Errorf("ensure source bucket failed: %w", err)
		}
		objStorage = minioStorage
	}

	var producer mq.Producer
	if appCfg.KafkaEnabled() {
		kafkaProducer, err := mq.NewKafkaProducer(appCfg.Kafka)
		if err != nil {
			return fmt.Errorf("init kafka failed: %w", err)
		}
		defer func() {
			_ = kafkaProducer.Close()
		}()
		producer = kafkaProducer
	}

	wrapMode, err := language.ParseWrapMode(appCfg.Judge.WrapMode)
	if err != nil {
		return err
	}
	judgeClient := gateway.NewClient(appCfg.Judge.Gateway, nil)
	judgePoller := poller.New(judgeClient, poller.RealClock{}, appCfg.Judge.Poll)
	caseRunner := runner.New(judgeClient, judgePoller, appCfg.Judge.Runner)

	submitService, err := service.NewSubmitService(service.Config{
		Runner:          caseRunner,
		Adapter:         language.NewAdapter(wrapMode),
		SubmissionRepo:  submitRepo.NewSubmissionRepositoryWithTTL(mysqlDB, cacheClient, appCfg.Submit.SubmissionCacheTTL, appCfg.Submit.SubmissionEmptyTTL),
		ProgressRepo:    submitRepo.NewProgressRepository(mysqlDB),
		TestCaseRepo:    submitRepo.NewTestCaseRepository(mysqlDB, cacheClient),
		Storage:         objStorage,
		Producer:        producer,
		SourceBucket:    appCfg.Submit.SourceBucket,
		SourceKeyPrefix: appCfg.Submit.SourceKeyPrefix,
		VerdictTopic:    appCfg.Submit.VerdictTopic,
		MaxCodeBytes:    appCfg.Submit.MaxCodeBytes,
		MaxInputBytes:   appCfg.Submit.MaxInputBytes,
		Timeouts:        appCfg.Submit.Timeouts,
	})
	if err != nil {
		return fmt.Errorf("init submit service failed: %w", err)
	}

	authService := gatewayService.NewAuthService(appCfg.Auth.JWTSecret, appCfg.Auth.Issuer)
	rateService := gatewayService.NewRateLimitService(windowStore, time.Minute, appCfg.RateLimit.RedisTimeout)

	router := buildRouter(appCfg, submitService, authService, rateService, health)
	httpServer := buildHTTPServer(appCfg.Server, router)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("init http listener failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge api started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("judge", appCfg.Judge.Gateway.BaseURL),
			zap.Bool("redis", appCfg.RedisEnabled()),
			zap.Bool("kafka", appCfg.KafkaEnabled()),
			zap.Bool("minio", appCfg.MinIOEnabled()),
		)
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

func buildRouter(
	appCfg *AppConfig,
	submitService controller.SubmissionService,
	authService *gatewayService.AuthService,
	rateService *gatewayService.RateLimitService,
	health map[string]controller.Pinger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(commonmw.RequestLogger())
	router.Use(middleware.CORSMiddleware(appCfg.CORS))

	router.GET("/healthz", controller.HealthHandler(health))
	controller.RegisterRoutes(router, controller.NewSubmitController(submitService), controller.RouteMiddleware{
		Auth:        middleware.AuthMiddleware(authService, middleware.AuthPolicy{}),
		ExecuteRate: middleware.RateLimitMiddleware(rateService, "execute", appCfg.RateLimit.Execute),
		SubmitRate:  middleware.RateLimitMiddleware(rateService, "submit", appCfg.RateLimit.Submit),
	})
	return router
}

func buildHTTPServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func sweepLocalWindows(ctx context.Context, store *gatewayService.LocalWindowStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.Sweep(); removed > 0 {
				logger.Debug(ctx, "swept expired rate limit windows", zap.Int("removed", removed), zap.Int("live", store.Len()))
			}
		}
	}
}
