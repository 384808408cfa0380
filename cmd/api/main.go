package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"pathfinder-llm/internal/config"
	"pathfinder-llm/internal/db"
	apihttp "pathfinder-llm/internal/http"
	"pathfinder-llm/internal/llm"
	"pathfinder-llm/internal/logger"
	"pathfinder-llm/internal/repository"
	"pathfinder-llm/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	zl, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		panic(err)
	}
	defer zl.Sync()

	if cfg.DatabaseURL == "" {
		zl.Fatal("DATABASE_URL is required")
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		zl.Fatal("db migrate", zap.Error(err))
	}

	conversations := repository.NewPgConversationRepository(pool)
	occupations := repository.NewPgOccupationRepository(pool)
	profiles := repository.NewPgUserProfileRepository(pool)
	catalog := service.NewCatalogService(occupations, cfg.CatalogSource, cfg.CatalogCacheTTL, zl)

	deps := service.OrchestratorDeps{
		Conversations: conversations,
		Catalog:       catalog,
		Sink:          profiles,
	}

	llmClient, err := llm.NewFromOptions(ctx, cfg.LLMOptions(), zl)
	if err != nil {
		zl.Warn("llm client init failed, running rule-based only", zap.Error(err))
	}
	if llmClient != nil {
		deps.Analyzer = service.NewLLMAnalyzer(llmClient, zl)
		deps.Coach = service.NewLLMCoach(llmClient, zl)
	} else {
		zl.Warn("llm not configured, running rule-based only")
	}

	var limiter service.MessageRateLimiter
	if cfg.MessageRateLimit > 0 {
		limiter = service.NewMemoryRateLimiter(cfg.MessageRateWindow, cfg.MessageRateLimit)
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			zl.Warn("redis ping failed, using in-process turn locks", zap.Error(err))
		} else {
			deps.Locker = service.NewRedisTurnLocker(redisClient, cfg.TurnLockTTL)
			if cfg.MessageRateLimit > 0 {
				limiter = service.NewRedisRateLimiter(redisClient, cfg.MessageRateWindow, cfg.MessageRateLimit)
			}
		}
		cancel()
	}

	if cfg.JWTSecret == "" {
		zl.Warn("jwt secret not configured")
	}
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.JWTAccessTTL)

	orch := service.NewOrchestrator(deps, cfg.OrchestratorSettings(), zl)
	router := apihttp.NewRouter(zl, jwtSvc, apihttp.NewConversationHandler(zl, orch, limiter))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zl.Warn("server shutdown", zap.Error(err))
		}
	}()

	zl.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal("server error", zap.Error(err))
	}
	// Esperamos las notificaciones al perfil que quedaron en vuelo.
	orch.Wait()
	zl.Info("server stopped")
}
