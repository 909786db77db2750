package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"freeagency/internal/auctionstore"
	"freeagency/internal/config"
	cronrunner "freeagency/internal/cron"
	"freeagency/internal/db"
	"freeagency/internal/directory"
	"freeagency/internal/handler"
	gormledger "freeagency/internal/ledger/gorm"
	"freeagency/internal/logger"
	"freeagency/internal/service"
)

func main() {
	cfgPath := os.Getenv("FA_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("FA_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	defer redisClient.Close()

	store := auctionstore.NewRedis(redisClient)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		pingCancel()
		logger.Fatal("redis ping failed", zap.Error(err))
	}
	pingCancel()

	led := gormledger.New(dbConn.Gorm)

	var dir directory.ManagerDirectory
	if strings.TrimSpace(cfg.Directory.BaseURL) != "" {
		dir = &directory.Client{
			BaseURL: cfg.Directory.BaseURL,
			APIKey:  cfg.Directory.APIKey,
			HTTP:    &http.Client{Timeout: cfg.Directory.Timeout},
		}
		logger.Info("manager directory enabled", zap.String("base_url", cfg.Directory.BaseURL))
	}

	bids := &service.BidService{
		Store:     store,
		Ledger:    led,
		Directory: dir,
		Roster:    cfg.Roster,
		Logger:    logger,
	}
	seeder := &service.Seeder{Store: store, Ledger: led, Logger: logger}
	finalizer := &service.Finalizer{
		Store:  store,
		Ledger: led,
		Roster: cfg.Roster,
		Logger: logger,
	}
	reconciler := &service.Reconciler{
		Store:     store,
		Ledger:    led,
		Finalizer: finalizer,
		Logger:    logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm, Store: store}
	healthHandler.Register(engine)
	auctionHandler := &handler.AuctionHandler{
		Bids:            bids,
		Seeder:          seeder,
		Finalizer:       finalizer,
		Reconciler:      reconciler,
		Store:           store,
		Ledger:          led,
		Logger:          logger,
		AdminToken:      cfg.Admin.Token,
		SchedulerSecret: cfg.Scheduler.Secret,
	}
	auctionHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Finalizer.Enabled {
		go func() {
			if err := finalizer.Run(ctx, cfg.Finalizer.Interval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("finalizer stopped", zap.Error(err))
			}
		}()
	}

	cronRunner := cronrunner.New(logger, ctx)

	if cfg.Reconciler.Enabled {
		spec := "@every " + cfg.Reconciler.Interval.String()
		_, err := cronRunner.Add(spec, func(ctx context.Context) {
			report, err := reconciler.Reconcile(ctx, false)
			if err != nil {
				logger.Warn("cron reconcile failed", zap.Error(err))
				return
			}
			if !report.Clean() {
				logger.Info("cron reconcile repaired drift",
					zap.Int("rostered_still_flagged", report.RosteredStillFlagged),
					zap.Int("flagged_without_auction", report.FlaggedWithoutAuction),
					zap.Int("expired_still_active", report.ExpiredStillActive),
					zap.Int("orphaned_auctions", report.OrphanedAuctions),
				)
			}
		})
		if err != nil {
			logger.Warn("cron register reconcile failed", zap.Error(err))
		}
	}

	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 2)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-User-ID")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
