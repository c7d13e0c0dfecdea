package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/birlik/portal-auth/internal/api"
	"github.com/birlik/portal-auth/internal/controller"
	"github.com/birlik/portal-auth/internal/ratelimit"
	"github.com/birlik/portal-auth/internal/service"
	"github.com/birlik/portal-auth/internal/storage"
	"github.com/birlik/portal-auth/internal/storage/memory"
	mongostorage "github.com/birlik/portal-auth/internal/storage/mongo"
	"github.com/birlik/portal-auth/internal/util"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	var cleanupFuncs []func()
	defer func() {
		for _, cleanup := range cleanupFuncs {
			cleanup()
		}
	}()

	var store storage.Storage
	mongoCfg := util.NewMongoConfig()
	if mongoCfg.URI == "" {
		logger.Warn("MONGO_URI not set, using in-memory storage; all data is lost on restart")
		store = memory.NewStorage()
	} else {
		db, dbCleanup, err := util.NewMongoDatabase(logger, mongoCfg)
		if err != nil {
			logger.Fatal(zap.Error(err))
		}
		cleanupFuncs = append(cleanupFuncs, dbCleanup)
		store = mongostorage.NewStorage(db, logger)
	}

	rateCfg := util.NewRateLimiterConfig()
	limiters := buildLimiters(logger, rateCfg, &cleanupFuncs)

	tokenService := service.NewTokenService(util.NewTokenConfig())
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())
	authService := service.NewAuthService(tokenService, store, webhookService, logger)
	sanitizer := service.NewSanitizer(logger)

	ctrl := controller.NewController(authService, sanitizer, store, logger)

	apiServer := api.NewAPI(ctrl, tokenService, limiters, api.NewMetrics(), util.NewServerConfig(), logger)
	apiServer.Run(ctx)
}

// buildLimiters prefers a shared redis window when REDIS_ADDR is set,
// so multiple instances throttle each identifier from one bucket, and
// falls back to the in-process limiter otherwise.
func buildLimiters(logger *zap.SugaredLogger, cfg *util.RateLimiterConfig, cleanupFuncs *[]func()) api.Limiters {
	redisCfg := util.NewRedisConfig()
	if redisCfg.Addr == "" {
		logger.Info("REDIS_ADDR not set, using in-process rate limiter")
		return api.Limiters{
			General: ratelimit.NewMemoryLimiter(cfg.Limit, cfg.Window),
			Auth:    ratelimit.NewMemoryLimiter(cfg.AuthLimit, cfg.AuthWindow),
		}
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, redisCfg)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	*cleanupFuncs = append(*cleanupFuncs, redisCleanup)

	return api.Limiters{
		General: ratelimit.NewRedisLimiter(redisClient, cfg.Limit, cfg.Window, logger),
		Auth:    ratelimit.NewRedisLimiter(redisClient, cfg.AuthLimit, cfg.AuthWindow, logger),
	}
}
