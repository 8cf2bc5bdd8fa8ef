package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/worker"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	monitoring.RegisterHealthCheck("database", func(ctx context.Context) error {
		return pool.Health()
	})

	// Redis backs the L2 cache and the reminder queue; without it the
	// service runs on the in-process cache alone.
	var redisCache *cache.RedisCache
	var reminderWorker *worker.Worker
	var reminders services.ReminderQueue
	if cfg.Redis.Enabled {
		redisCache = cache.NewRedisCache(&cache.RedisConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		defer redisCache.Close()
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return redisCache.Health()
		})

		reminders = worker.NewQueue(redisCache.Client())
		if cfg.Worker.Enabled {
			reminderWorker = worker.NewWorker(redisCache.Client(), func(ctx context.Context, job *worker.ReminderJob) error {
				log.Printf("deadline reminder: user=%s task=%s due=%s", job.Username, job.TaskID, job.Deadline)
				return nil
			})
			reminderWorker.Start(cfg.Worker.Concurrency)
			defer reminderWorker.Stop()
		}
	}
	taskCache := cache.NewMultiLevelCache(redisCache)
	defer taskCache.Close()

	userRepo := repositories.NewUserRepository(pool.DB)
	taskRepo := repositories.NewTaskRepository(pool.DB)

	hasher := services.NewPasswordHasher(cfg.Auth.BCryptCost)
	tokens := services.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	authService := services.NewAuthService(userRepo, hasher, tokens)
	userService := services.NewUserService(userRepo, hasher)
	taskService := services.NewCachedTaskService(services.NewTaskService(taskRepo, reminders), taskCache)

	router := buildRouter(cfg, authService, userService, taskService, pool)

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
}

func buildRouter(cfg *config.Config, authService services.AuthService, userService services.UserService, taskService services.TaskService, pool *database.DatabasePool) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RecoveryWithLog())
	router.Use(monitoring.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit)
		router.Use(limiter.Middleware())
	}

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/health/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())
	router.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"database": pool.Stats()})
	})

	authHandler := handlers.NewAuthHandler(authService, userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", middleware.RequireAuth(authService), authHandler.Refresh)
	auth.POST("/logout", middleware.RequireAuth(authService), authHandler.Logout)
	auth.GET("/me", middleware.RequireAuth(authService), authHandler.Me)

	tasks := v1.Group("/tasks", middleware.RequireAuth(authService))
	tasks.POST("", taskHandler.Create)
	tasks.GET("", taskHandler.List)
	tasks.GET("/search", taskHandler.Search)
	tasks.GET("/count", taskHandler.Count)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.PATCH("/:id/complete", taskHandler.Complete)
	tasks.PATCH("/:id/incomplete", taskHandler.Incomplete)

	users := v1.Group("/users", middleware.RequireAuth(authService))
	users.GET("/me", authHandler.Me)
	users.PUT("/me", userHandler.UpdateMe)
	users.GET("", middleware.RequireSuperuser(), userHandler.List)
	users.GET("/count", middleware.RequireSuperuser(), userHandler.Count)
	users.GET("/:id", middleware.RequireSuperuser(), userHandler.Get)
	users.PUT("/:id", middleware.RequireSuperuser(), userHandler.Update)
	users.POST("/:id/deactivate", middleware.RequireSuperuser(), userHandler.Deactivate)
	users.POST("/:id/activate", middleware.RequireSuperuser(), userHandler.Activate)
	users.DELETE("/:id", middleware.RequireSuperuser(), userHandler.Delete)

	return router
}
