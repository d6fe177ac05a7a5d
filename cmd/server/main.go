package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yukikurage/company-task-api/internal/cache"
	"github.com/yukikurage/company-task-api/internal/config"
	"github.com/yukikurage/company-task-api/internal/constants"
	"github.com/yukikurage/company-task-api/internal/database"
	"github.com/yukikurage/company-task-api/internal/handlers"
	"github.com/yukikurage/company-task-api/internal/logger"
	"github.com/yukikurage/company-task-api/internal/middleware"
	"github.com/yukikurage/company-task-api/internal/repository"
	"github.com/yukikurage/company-task-api/internal/services"
	"github.com/yukikurage/company-task-api/internal/token"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log.Zerolog()))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisAddr(),
		"", // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis session store")
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	policy := cache.Policy{TaskList: cfg.TaskListTTL, Analytics: cfg.AnalyticsTTL}
	readCache := newCache(cfg, policy, log)

	tokens, err := token.NewManager(cfg.JWTSecret, cfg.JWTIssuer, time.Duration(cfg.JWTExpirationMinutes)*time.Minute)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token manager")
	}

	// Task drafting is optional
	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, task generation disabled")
	}

	db := database.GetDB()
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	identityService := services.NewIdentityService(userRepo, companyRepo, services.IdentityOptions{
		CodeLength:      cfg.CompanyCodeLength,
		MaxCodeAttempts: cfg.CompanyCodeMaxAttempts,
	})
	taskService := services.NewTaskService(taskRepo, userRepo, readCache, policy, drafter)
	analyticsService := services.NewAnalyticsService(taskRepo, readCache, policy)

	handlers.Routes{
		Auth:        handlers.NewAuthHandler(identityService, tokens),
		Tasks:       handlers.NewTaskHandler(taskService),
		Company:     handlers.NewCompanyHandler(identityService),
		Analytics:   handlers.NewAnalyticsHandler(analyticsService),
		RequireAuth: middleware.RequireAuth(identityService, tokens),
	}.Register(r)

	// Start server
	log.Info().Str("addr", cfg.ListenAddr()).Msg("server starting")
	if err := r.Run(cfg.ListenAddr()); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// newCache selects the read cache backend. The Redis backend shares
// invalidations between API processes.
func newCache(cfg *config.Config, policy cache.Policy, log *logger.Logger) cache.Cache {
	if cfg.CacheBackend != "redis" {
		log.Info().Msg("using in-process read cache")
		return cache.NewMemoryCache()
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr()})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	readCache, err := cache.NewRedisCache(rdb, "taskcache", policy.Max())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis cache")
	}
	if err := readCache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reach Redis cache")
	}

	log.Info().Str("addr", cfg.RedisAddr()).Msg("using Redis read cache")
	return readCache
}
