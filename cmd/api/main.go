package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/labmanager/identity-access-service/internal/adapters/handler"
	"github.com/labmanager/identity-access-service/internal/adapters/middleware"
	"github.com/labmanager/identity-access-service/internal/adapters/repository"
	"github.com/labmanager/identity-access-service/internal/config"
	"github.com/labmanager/identity-access-service/internal/core/domain"
	"github.com/labmanager/identity-access-service/internal/core/services"
	"github.com/labmanager/identity-access-service/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.LogFormat)
	ctx := context.Background()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}

	repo := repository.NewSQLRepository(db)
	recoveryStore := repository.NewRedisRecoveryStore(redisClient)

	roleIDs, err := repo.RoleIDs(ctx)
	if err != nil {
		logger.Error("failed to load roles", slog.Any("error", err))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	authService := services.NewAuthService(repo, cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.TokenTTL)
	registrationService := services.NewRegistrationService(repo, roleIDs)
	studyService := services.NewStudyService(repository.SQLStudyRepository{SQLRepository: repo}, repo)
	recoveryService := services.NewRecoveryService(repo, recoveryStore, repo, cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.RecoveryTTL)

	authMiddleware := middleware.NewAuthMiddleware(authService, logger)

	authHandler := handler.NewAuthHandler(authService, recoveryService, metrics, logger)
	registrationHandler := handler.NewRegistrationHandler(registrationService, authService, logger)
	studyHandler := handler.NewStudyHandler(studyService, metrics, logger)
	analysisHandler := handler.NewAnalysisHandler(studyService, metrics, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	mux := http.NewServeMux()

	// Health and metrics endpoints
	mux.HandleFunc("GET /health", healthHandler.Live)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Authentication
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/request-password-recovery", authHandler.RequestPasswordRecovery)
	mux.HandleFunc("POST /auth/reset-password", authHandler.ResetPassword)

	// Registration (admin only)
	mux.Handle("POST /auth/register-biochemist",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdmin}, http.HandlerFunc(registrationHandler.RegisterBiochemist)),
	)
	mux.Handle("POST /auth/register-patient",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdmin}, http.HandlerFunc(registrationHandler.RegisterPatient)),
	)

	// Studies
	mux.Handle("POST /studies",
		authMiddleware.RequireRole([]domain.Role{domain.RoleBiochemist}, http.HandlerFunc(studyHandler.Create)),
	)
	mux.Handle("GET /studies/all",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdmin}, http.HandlerFunc(studyHandler.ListAll)),
	)
	mux.Handle("GET /studies/biochemist/me",
		authMiddleware.RequireRole([]domain.Role{domain.RoleBiochemist}, http.HandlerFunc(studyHandler.ListMine)),
	)
	mux.Handle("GET /studies/patient/me",
		authMiddleware.RequireRole([]domain.Role{domain.RolePatient}, http.HandlerFunc(studyHandler.ListMineAsPatient)),
	)
	mux.Handle("GET /studies/{id}",
		authMiddleware.RequireRole(nil, http.HandlerFunc(studyHandler.GetByID)),
	)
	mux.Handle("PATCH /studies/{id}/status",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdmin, domain.RoleBiochemist}, http.HandlerFunc(studyHandler.UpdateStatus)),
	)
	mux.Handle("PATCH /studies/{id}",
		authMiddleware.RequireRole([]domain.Role{domain.RoleAdmin, domain.RoleBiochemist}, http.HandlerFunc(studyHandler.Update)),
	)

	// Patient analysis views
	mux.Handle("GET /patients/analysis",
		authMiddleware.RequireRole([]domain.Role{domain.RolePatient}, http.HandlerFunc(analysisHandler.ListMine)),
	)
	mux.Handle("GET /patients/analysis/{id}",
		authMiddleware.RequireRole([]domain.Role{domain.RolePatient}, http.HandlerFunc(analysisHandler.GetByID)),
	)

	root := middleware.CORSMiddleware(cfg.AllowedOrigins)(mux)

	logger.Info("starting server", slog.String("port", cfg.Port))
	if err := http.ListenAndServe(":"+cfg.Port, root); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
