package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ambulance-dispatch/internal/config"
	"ambulance-dispatch/internal/handlers"
	"ambulance-dispatch/internal/middleware"
	"ambulance-dispatch/internal/models"
	"ambulance-dispatch/internal/repositories/interfaces"
	"ambulance-dispatch/internal/repositories/memory"
	"ambulance-dispatch/internal/repositories/mongodb"
	"ambulance-dispatch/internal/services"
	"ambulance-dispatch/internal/utils"
	"ambulance-dispatch/pkg/cache"
	"ambulance-dispatch/pkg/database"
	"ambulance-dispatch/pkg/identity"
	"ambulance-dispatch/pkg/logger"
	"ambulance-dispatch/pkg/push"
	"ambulance-dispatch/pkg/sms"
	"ambulance-dispatch/pkg/websocket"
	"ambulance-dispatch/routes"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"google.golang.org/api/option"
)

// repositories groups the storage backend chosen at startup.
type repositories struct {
	accidents        interfaces.AccidentRepository
	assignments      interfaces.AssignmentRepository
	hospitals        interfaces.HospitalRepository
	ambulanceDrivers interfaces.AmbulanceDriverRepository
	users            interfaces.UserRepository
	transactions     interfaces.TransactionManager
	idempotency      interfaces.IdempotencyStore
	checks           map[string]handlers.HealthCheck
	close            func(ctx context.Context)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:   logger.LogLevel(cfg.App.LogLevel),
		Format:  cfg.App.LogFormat,
		Output:  cfg.App.LogOutput,
		Caller:  cfg.App.Debug,
		Colors:  !cfg.App.IsProduction(),
		AppName: cfg.App.Name,
		Version: cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisCache, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to Redis")
	}

	repos, err := openStorage(ctx, cfg, redisCache)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open storage")
	}

	verifier, firebaseApp, err := newVerifier(ctx, cfg.Identity)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize identity provider")
	}

	channels := services.NotificationChannels{}
	if cfg.Push.Enabled {
		provider, err := newPushProvider(ctx, cfg, firebaseApp)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize push provider")
		}
		channels.Push = provider
	}
	if provider, err := newSMSProvider(ctx, cfg.SMS); err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize SMS provider")
	} else if provider != nil {
		channels.SMS = provider
	}

	var wsHandler *websocket.Handler
	if cfg.WebSocket.Enabled {
		wsHandler = websocket.NewHandler(ctx, cfg.WebSocket.AllowedOrigins, hospitalRooms(repos.hospitals))
		channels.Realtime = wsHandler
	}

	notificationService := services.NewNotificationService(channels, repos.hospitals, cfg.Dispatch.NotifyTimeout, appLogger)
	identityService := services.NewIdentityService(verifier, repos.users, appLogger)
	dispatchService := services.NewDispatchService(services.DispatchDependencies{
		Accidents:        repos.accidents,
		Assignments:      repos.assignments,
		Hospitals:        repos.hospitals,
		AmbulanceDrivers: repos.ambulanceDrivers,
		Transactions:     repos.transactions,
		Idempotency:      services.NewIdempotencyService(repos.idempotency, cfg.Dispatch.IdempotencyTTL, appLogger),
		Notifier:         notificationService,
	}, cfg.Dispatch, appLogger)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		appLogger.WithError(err).Fatal("Invalid trusted proxies")
	}

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(appLogger))
	router.Use(middleware.RecoveryMiddleware(appLogger))
	router.Use(middleware.CORSMiddleware(cfg.Security.CORSAllowedOrigins))

	health := handlers.NewHealthHandler(cfg.App.Version, repos.checks)
	router.GET("/health", health.Health)

	// API routes
	v1 := router.Group("/api/v1")
	{
		routes.SetupDispatchRoutes(v1, handlers.NewDispatchHandler(dispatchService), identityService)
	}
	if wsHandler != nil {
		routes.SetupRealtimeRoutes(router, cfg.WebSocket.Path, wsHandler.HandleWebSocket, identityService)
	}

	server := &http.Server{
		Addr:              cfg.App.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"address": server.Addr,
			"storage": cfg.Database.Driver,
		}).Info("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	notificationService.Close()
	repos.close(shutdownCtx)
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			appLogger.WithError(err).Warn("Failed to close Redis")
		}
	}

	appLogger.Info("Server exited")
}

func connectRedis(ctx context.Context, cfg *config.RedisConfig) (*cache.RedisCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return cache.NewRedisCache(ctx, &cache.RedisConfig{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
}

func openStorage(ctx context.Context, cfg *config.Config, redisCache *cache.RedisCache) (*repositories, error) {
	repos := &repositories{
		checks: map[string]handlers.HealthCheck{},
		close:  func(context.Context) {},
	}

	// Left as an untyped nil when Redis is off, which disables caching.
	var repoCache mongodb.CacheService
	if redisCache != nil {
		repoCache = redisCache
		repos.idempotency = cache.NewIdempotencyStore(redisCache, utils.AppName+":")
		repos.checks["redis"] = redisCache.Ping
	} else {
		repos.idempotency = memory.NewIdempotencyStore()
	}

	switch cfg.Database.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		if cfg.Database.SeedFile != "" {
			if err := store.LoadSeedFile(cfg.Database.SeedFile); err != nil {
				return nil, err
			}
		}
		repos.accidents = store.Accidents()
		repos.assignments = store.Assignments()
		repos.hospitals = store.Hospitals()
		repos.ambulanceDrivers = store.AmbulanceDrivers()
		repos.users = store.Users()
		repos.transactions = store.TransactionManager()
		return repos, nil

	case config.StorageMongoDB:
		db, err := database.NewMongoDB(ctx, &database.DatabaseConfig{
			URI:            cfg.Database.URI,
			Database:       cfg.Database.Database,
			MaxPoolSize:    cfg.Database.MaxPoolSize,
			MinPoolSize:    cfg.Database.MinPoolSize,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			SocketTimeout:  cfg.Database.SocketTimeout,
			Transactions:   cfg.Database.Transactions,
		})
		if err != nil {
			return nil, err
		}
		if cfg.Database.RunMigrations {
			if err := database.NewMigrator(db.Database).Up(ctx); err != nil {
				_ = db.Close(ctx)
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		repos.accidents = mongodb.NewAccidentRepository(db.Database)
		repos.assignments = mongodb.NewAssignmentRepository(db.Database)
		repos.hospitals = mongodb.NewHospitalRepository(db.Database, repoCache, cfg.Dispatch.HospitalCacheTTL)
		repos.ambulanceDrivers = mongodb.NewAmbulanceDriverRepository(db.Database)
		repos.users = mongodb.NewUserRepository(db.Database, repoCache)
		repos.transactions = mongodb.NewTransactionManager(db)
		repos.checks["mongodb"] = db.Ping
		repos.close = func(ctx context.Context) {
			if err := db.Close(ctx); err != nil {
				logger.WithError(err).Warn("Failed to close MongoDB")
			}
		}
		return repos, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Database.Driver)
}

// newVerifier also returns the Firebase app, when one was created, so push
// can share its credentials.
func newVerifier(ctx context.Context, cfg *config.IdentityConfig) (identity.Verifier, *firebase.App, error) {
	switch cfg.Provider {
	case config.IdentityJWT:
		return identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTokenTTL), nil, nil
	case config.IdentityFirebase:
		app, err := newFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		verifier, err := identity.NewFirebaseVerifier(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		return verifier, app, nil
	}
	return nil, nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
}

func newFirebaseApp(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var fbConfig *firebase.Config
	if projectID != "" {
		fbConfig = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	return app, nil
}

func newPushProvider(ctx context.Context, cfg *config.Config, shared *firebase.App) (push.PushProvider, error) {
	if cfg.Push.FCM.Credentials == "" && cfg.Push.FCM.ProjectID == "" && shared != nil {
		return push.NewFCMProviderFromApp(ctx, shared)
	}

	credentials := cfg.Push.FCM.Credentials
	if credentials == "" {
		credentials = cfg.Identity.FirebaseCredentialsFile
	}
	return push.NewFCMProvider(ctx, cfg.Push.FCM.ProjectID, credentials)
}

func newSMSProvider(ctx context.Context, cfg *config.SMSConfig) (sms.SMSProvider, error) {
	switch cfg.Provider {
	case config.SMSProviderTwilio:
		return sms.NewTwilioProvider(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber), nil
	case config.SMSProviderAWS:
		return sms.NewAWSSNSProvider(ctx, cfg.AWS.Region, cfg.AWS.SenderID)
	case config.SMSProviderNone, "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown SMS provider %q", cfg.Provider)
}

// hospitalRooms joins hospital admins to their hospital's room.
func hospitalRooms(hospitals interfaces.HospitalRepository) websocket.RoomResolver {
	return func(ctx context.Context, userID, role string) []string {
		if models.Role(role) != models.RoleHospitalAdmin {
			return nil
		}
		hospital, err := hospitals.GetByAdminUserID(ctx, userID)
		if err != nil {
			if !errors.Is(err, interfaces.ErrNotFound) {
				logger.WithContext(ctx).WithError(err).Warn("Failed to resolve hospital room")
			}
			return nil
		}
		return []string{websocket.HospitalRoom(hospital.ID)}
	}
}
