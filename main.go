// Package main provides the main entry point for the guide backend service
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/guideapp/guide-backend/app/handlers"
	"github.com/guideapp/guide-backend/app/middleware"
	"github.com/guideapp/guide-backend/app/router"
	"github.com/guideapp/guide-backend/app/services"
	businessflow "github.com/guideapp/guide-backend/business_flow"
	"github.com/guideapp/guide-backend/config"
	"github.com/guideapp/guide-backend/models"
	"github.com/guideapp/guide-backend/repository"
	"github.com/guideapp/guide-backend/utils"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting guide backend...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// runMigrations creates or updates the database schema
func runMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.AccountType{},
		&models.Account{},
		&models.Business{},
		&models.AccountSession{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startSessionCleanup starts a background goroutine that periodically removes
// expired sessions. The returned cancel function stops the worker.
func startSessionCleanup(parent context.Context, sessionRepo repository.AccountSessionRepository, interval time.Duration) func() {
	workerCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 30*time.Second)
				if err := sessionRepo.CleanupExpiredSessions(ctx); err != nil {
					log.Printf("Session cleanup failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	accountTypeRepo := repository.NewAccountTypeRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	sessionRepo := repository.NewAccountSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Seed reference data and the optional default admin
	if err := seedAccountTypes(accountTypeRepo); err != nil {
		return nil, err
	}
	if err := seedDefaultAdmin(accountRepo, accountTypeRepo, cfg.Admin); err != nil {
		return nil, err
	}

	cancel := startSessionCleanup(context.Background(), sessionRepo, cfg.Security.SessionCleanupInterval)
	stopFuncs = append(stopFuncs, cancel)

	// Token revocation store: Redis when available, in-process otherwise
	var revocations services.RevocationStore
	if rc != nil {
		revocations = services.NewRedisRevocationStore(rc)
	} else {
		revocations = services.NewMemoryRevocationStore()
		log.Println("Redis disabled, using in-memory token revocation store")
	}

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		revocations,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	signupFlow := businessflow.NewSignupFlow(
		accountRepo,
		accountTypeRepo,
		businessRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		db,
	)

	loginFlow := businessflow.NewLoginFlow(
		accountRepo,
		businessRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		db,
	)

	profileFlow := businessflow.NewProfileFlow(
		accountRepo,
		businessRepo,
		sessionRepo,
		auditRepo,
		tokenService,
		db,
	)

	businessFlow := businessflow.NewBusinessLifecycleFlow(
		accountRepo,
		accountTypeRepo,
		businessRepo,
		sessionRepo,
		auditRepo,
		db,
	)

	adminFlow := businessflow.NewAdminFlow(
		accountRepo,
		businessRepo,
		sessionRepo,
		auditRepo,
		db,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(signupFlow, loginFlow)
	profileHandler := handlers.NewProfileHandler(profileFlow)
	businessHandler := handlers.NewBusinessHandler(businessFlow)
	adminHandler := handlers.NewAdminHandler(adminFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		profileHandler,
		businessHandler,
		adminHandler,
		authMiddleware,
		cfg.Security.AllowedOrigins,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// seedAccountTypes ensures every known account type exists
func seedAccountTypes(accountTypeRepo repository.AccountTypeRepository) error {
	displayNames := map[string]string{
		models.AccountTypeRegularUser: "Regular User",
		models.AccountTypeAdmin:       "Administrator",
		models.AccountTypeBusiness:    "Business",
		models.AccountTypeSubManager:  "Sub Manager",
		models.AccountTypeCityAdmin:   "City Administrator",
	}

	for _, typeName := range models.AllAccountTypes {
		existing, err := accountTypeRepo.ByTypeName(context.Background(), typeName)
		if err != nil {
			return fmt.Errorf("failed to look up account type %s: %w", typeName, err)
		}
		if existing != nil {
			continue
		}

		accountType := models.AccountType{
			TypeName:    typeName,
			DisplayName: displayNames[typeName],
			CreatedAt:   utils.UTCNow(),
			UpdatedAt:   utils.UTCNow(),
		}
		if err := accountTypeRepo.Save(context.Background(), &accountType); err != nil {
			return fmt.Errorf("failed to seed account type %s: %w", typeName, err)
		}
		log.Printf("Seeded account type %s", typeName)
	}

	return nil
}

// seedDefaultAdmin creates the configured administrator account if it does not exist yet
func seedDefaultAdmin(
	accountRepo repository.AccountRepository,
	accountTypeRepo repository.AccountTypeRepository,
	cfg config.AdminConfig,
) error {
	if cfg.Username == "" {
		return nil
	}

	existing, err := accountRepo.ByUsername(context.Background(), cfg.Username)
	if err != nil {
		return fmt.Errorf("failed to look up admin account: %w", err)
	}
	if existing != nil {
		return nil
	}

	adminType, err := accountTypeRepo.ByTypeName(context.Background(), models.AccountTypeAdmin)
	if err != nil {
		return fmt.Errorf("failed to look up admin account type: %w", err)
	}
	if adminType == nil {
		return fmt.Errorf("admin account type is not seeded")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.Account{
		UUID:           uuid.New(),
		AccountTypeID:  adminType.ID,
		Username:       cfg.Username,
		Email:          cfg.Email,
		PasswordHash:   string(hash),
		FullName:       cfg.FullName,
		DepartmentName: utils.ToPtr(cfg.DepartmentName),
		IsActive:       utils.ToPtr(true),
		CreatedAt:      utils.UTCNow(),
		UpdatedAt:      utils.UTCNow(),
	}
	if err := accountRepo.Save(context.Background(), &admin); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	log.Printf("Seeded default admin account %s", cfg.Username)
	return nil
}
