// Package main runs the club backend HTTP server with graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bcn-golf/backend/config"
	"github.com/bcn-golf/backend/internal/admission"
	"github.com/bcn-golf/backend/internal/auth"
	"github.com/bcn-golf/backend/internal/content"
	"github.com/bcn-golf/backend/internal/middleware"
	"github.com/bcn-golf/backend/internal/models"
	"github.com/bcn-golf/backend/internal/profiles"
	"github.com/bcn-golf/backend/internal/tournaments"
	"github.com/bcn-golf/backend/pkg/database"
	"github.com/bcn-golf/backend/pkg/queue"
	"github.com/bcn-golf/backend/pkg/redis"
	"github.com/bcn-golf/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Admission engine
	store := admission.NewStore(pool)
	registry := admission.NewRegistry(pool)
	resolver := admission.NewResolver(pool)
	gate := admission.NewGate(resolver)
	opTimeout := time.Duration(cfg.Engine.OpTimeoutSec) * time.Second
	controller := admission.NewController(store, registry, resolver, gate, logger, opTimeout)
	admissionHandler := admission.NewHandler(controller, jobQueue, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, controller, logger)

	// Profiles
	profileRepo := profiles.NewRepository(pool)
	profileHandler := profiles.NewHandler(profileRepo, resolver, logger)

	// Tournaments
	tournamentRepo := tournaments.NewRepository(pool)
	tournamentHandler := tournaments.NewHandler(tournamentRepo, resolver, logger)

	// Content
	contentRepo := content.NewRepository(pool)
	contentHandler := content.NewHandler(contentRepo, logger)

	bootstrapAdmins(ctx, cfg.Admin.Emails, authRepo, resolver, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireAdmin(resolver), authHandler.List)

		// Identity and profiles
		api.GET("/me/role", admissionHandler.MyRole)
		api.GET("/profile", profileHandler.Get)
		api.PATCH("/profile", profileHandler.Update)
		api.GET("/directory", profileHandler.Directory)

		// Membership admission
		api.POST("/membership/apply", admissionHandler.ApplyMembership)
		api.GET("/membership/requests", admissionHandler.ListMembershipRequests)

		// Tournaments
		api.GET("/tournaments", tournamentHandler.List)
		api.POST("/tournaments", middleware.RequireAdmin(resolver), tournamentHandler.Create)
		api.GET("/tournaments/:id", tournamentHandler.GetByID)
		api.PATCH("/tournaments/:id", tournamentHandler.Update)
		api.PATCH("/tournaments/:id/status", tournamentHandler.SetStatus)

		// Tournament admission
		api.POST("/tournaments/:id/apply", middleware.RequireRole(resolver, models.RoleMember, models.RoleAdmin), admissionHandler.ApplyTournament)
		api.GET("/tournaments/:id/requests", admissionHandler.ListTournamentRequests)
		api.GET("/tournaments/:id/roster", admissionHandler.Roster)

		// Decisions (authorization enforced by the engine's gate)
		api.GET("/requests/:id", admissionHandler.GetRequest)
		api.POST("/requests/:id/decide", admissionHandler.Decide)

		// Content
		api.GET("/documents", contentHandler.ListDocuments)
		api.GET("/documents/:id", contentHandler.GetDocument)
		api.POST("/documents", middleware.RequireAdmin(resolver), contentHandler.CreateDocument)
		api.PATCH("/documents/:id", middleware.RequireAdmin(resolver), contentHandler.UpdateDocument)
		api.GET("/notifications", contentHandler.ListNotifications)
		api.GET("/notifications/:id", contentHandler.GetNotification)
		api.POST("/notifications", middleware.RequireAdmin(resolver), contentHandler.CreateNotification)
		api.PATCH("/notifications/:id", middleware.RequireAdmin(resolver), contentHandler.UpdateNotification)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// bootstrapAdmins grants ADMIN to configured emails when the user
// already exists. Unknown emails are logged and skipped; they get the
// grant on the next restart after registering.
func bootstrapAdmins(ctx context.Context, emails []string, users *auth.Repository, resolver *admission.Resolver, logger *zap.Logger) {
	for _, email := range emails {
		u, err := users.GetByEmail(ctx, email)
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("admin bootstrap: user not registered yet", zap.String("email", email))
			continue
		}
		if err != nil {
			logger.Error("admin bootstrap lookup failed", zap.String("email", email), zap.Error(err))
			continue
		}
		if err := resolver.GrantAdmin(ctx, u.ID); err != nil {
			logger.Error("admin bootstrap grant failed", zap.String("email", email), zap.Error(err))
			continue
		}
		logger.Info("admin granted", zap.String("email", email))
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
