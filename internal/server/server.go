package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"tienda-api/internal/config"
	custommiddleware "tienda-api/internal/middleware"
	"tienda-api/internal/realtime"
	"tienda-api/internal/repository"
	"tienda-api/internal/service"
	"tienda-api/internal/storage"
	"tienda-api/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *sql.DB,
	redisClient *redis.Client,
	store *storage.Store,
	broker *realtime.Broker,
) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public product images. The document buckets are never mounted here;
	// they are reachable only through the authorized triage endpoints.
	imagesDir := filepath.Join(cfg.Storage.Root, string(storage.BucketProductImages))
	router.Handle("/static/product-images/*",
		http.StripPrefix("/static/product-images/", http.FileServer(http.Dir(imagesDir))))

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	userRoleRepo := repository.NewUserRoleRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	partnerRepo := repository.NewPartnerApplicationRepository(db)
	creditRepo := repository.NewCreditApplicationRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, userRoleRepo, refreshTokenRepo, cfg.JWT.Secret)
	catalogService := service.NewCatalogService(productRepo, categoryRepo, broker)
	adminCatalogService := service.NewAdminCatalogService(productRepo, categoryRepo, store, broker, logger)
	partnerService := service.NewPartnerIntakeService(partnerRepo, store)
	creditService := service.NewCreditIntakeService(creditRepo, store)
	triageService := service.NewTriageService(partnerRepo, creditRepo, store)

	// Initialize handlers
	authHandler := transport.NewAuthHandler(authService, logger)
	catalogHandler := transport.NewCatalogHandler(catalogService, logger)
	adminCatalogHandler := transport.NewAdminCatalogHandler(adminCatalogService, logger)
	partnerHandler := transport.NewPartnerHandler(partnerService, logger)
	creditHandler := transport.NewCreditHandler(creditService, logger)
	triageHandler := transport.NewTriageHandler(triageService, logger)

	// Middleware for the protected surfaces
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminGate := custommiddleware.RequireAdmin(authService, logger)
	intakeLimiter := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.IntakePerHour,
		Window:            time.Hour,
		KeyPrefix:         "ratelimit:intake",
	}, logger)

	// Register routes
	authHandler.RegisterRoutes(router, authMiddleware)
	catalogHandler.RegisterRoutes(router)
	partnerHandler.RegisterRoutes(router, intakeLimiter)
	creditHandler.RegisterRoutes(router, intakeLimiter)

	router.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminGate)
		adminCatalogHandler.RegisterRoutes(r)
		triageHandler.RegisterRoutes(r)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
