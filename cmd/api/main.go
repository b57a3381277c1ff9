package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dmhouse/user-service/internal/config"
	"github.com/dmhouse/user-service/internal/repository/postgres"
	"github.com/dmhouse/user-service/internal/repository/redis"
	"github.com/dmhouse/user-service/internal/service/cleanup"
	"github.com/dmhouse/user-service/internal/service/identifier"
	"github.com/dmhouse/user-service/internal/service/registration"
	"github.com/dmhouse/user-service/internal/service/session"
	transportHttp "github.com/dmhouse/user-service/internal/transport/http"
	"github.com/dmhouse/user-service/internal/transport/http/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.LoadConfig()

	db, err := postgres.Open(
		cfg.DatabaseURL,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
		time.Duration(cfg.DBConnMaxLifetimeMin)*time.Minute,
	)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Repositories (Persistence Layer)
	userRepo := postgres.NewUserRepo(db)
	sessionRepo := postgres.NewSessionRepo(db)

	// Redis (optional; service degrades to Postgres-only without it)
	if err := redis.InitRedis(); err != nil {
		log.Printf("Failed to initialize Redis: %v", err)
	}
	defer redis.CloseRedis()

	var cache session.Cache
	if redis.IsRedisEnabled() && redis.RedisClient != nil {
		cache = redis.NewRedisCache(redis.RedisClient)
	}

	// Services (Business Logic Layer)
	ids := identifier.NewGenerator(userRepo)
	registrationService := registration.NewService(userRepo, ids)
	sessionRegistry := session.NewRegistry(sessionRepo, cache)

	// Background workers
	cleanupWorker := cleanup.NewWorker(sessionRegistry, time.Duration(cfg.CleanupIntervalMin)*time.Minute)
	cleanupWorker.Start()

	// HTTP Handlers (API Layer)
	authHandler := transportHttp.NewAuthHandler(userRepo, registrationService, sessionRegistry)
	sessionsHandler := transportHttp.NewSessionsHandler(sessionRegistry)
	oauthHandler := transportHttp.NewOAuthHandler(userRepo, registrationService, sessionRegistry, &cfg.OAuthConfig)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware())

	authMW := middleware.AuthMiddleware(sessionRegistry)

	// Public Auth Routes
	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)

	// OAuth Routes (public)
	router.GET("/auth/google/login", oauthHandler.GoogleLogin)
	router.GET("/auth/google/callback", oauthHandler.GoogleCallback)
	router.POST("/auth/google/complete", oauthHandler.CompleteSignup)

	// Protected Routes
	protected := router.Group("/")
	protected.Use(authMW)
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.POST("/auth/logout-all", authHandler.LogoutAll)
		protected.GET("/auth/me", authHandler.Me)
		protected.PUT("/auth/me/telefono", authHandler.UpdateTelefono)
		protected.POST("/auth/deactivate", authHandler.Deactivate)

		// Session audit
		protected.GET("/auth/sessions", sessionsHandler.List)
		protected.GET("/auth/sessions/export", sessionsHandler.Export)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited gracefully")
}
