package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/moosefactory/registrar-api/internal/config"
	"github.com/moosefactory/registrar-api/internal/database"
	"github.com/moosefactory/registrar-api/internal/handler"
	"github.com/moosefactory/registrar-api/internal/middleware"
	"github.com/moosefactory/registrar-api/internal/models"
	"github.com/moosefactory/registrar-api/internal/repository"
	"github.com/moosefactory/registrar-api/internal/router"
	"github.com/moosefactory/registrar-api/internal/service"
	"github.com/moosefactory/registrar-api/pkg/archive"
	"github.com/moosefactory/registrar-api/pkg/msgraph"
	"github.com/moosefactory/registrar-api/pkg/typeset"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.FormRequest{},
		&models.Document{},
		&models.ReportCategory{},
		&models.Report{},
		&models.Notification{},
		&models.AuditEntry{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	store, err := archive.New(archive.Config{
		CloudName: cfg.ArchiveCloudName,
		APIKey:    cfg.ArchiveAPIKey,
		APISecret: cfg.ArchiveAPISecret,
		Folder:    cfg.ArchiveFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create archive store: %v", err)
	}

	renderer, cleanup, err := buildRenderer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create document renderer: %v", err)
	}
	if cleanup != nil {
		defer cleanup()
	}

	graph := msgraph.New(msgraph.Config{
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Tenant:       cfg.OAuthTenant,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, redisClient, natsConn, logger)
	directoryService := service.NewDirectoryService(service.DirectoryDeps{
		Users:         userRepo,
		Requests:      requestRepo,
		Reports:       reportRepo,
		Audit:         auditRepo,
		Signatures:    store,
		Notifications: notificationService,
		Cache:         redisClient,
		CacheTTL:      cfg.SummaryCacheTTL,
		Validator:     validate,
		Logger:        logger,
	})
	requestService := service.NewRequestService(requestRepo, auditRepo, renderer, store, notificationService, logger)
	reportService := service.NewReportService(reportRepo, userRepo, auditRepo, notificationService, cfg.ModeratorsMayResolve(), validate, logger)
	identityService := service.NewIdentityService(graph, cfg.SessionSecret, cfg.SessionTTL, logger)
	seedService := service.NewSeedService(reportRepo, logger)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := seedService.EnsureReportCategories(seedCtx); err != nil {
		log.Fatalf("failed to seed report categories: %v", err)
	}
	cancelSeed()

	authHandler := handler.NewAuthHandler(identityService, cfg.SessionTTL, logger)
	adminHandler := handler.NewAdminHandler(directoryService, validate, logger)
	requestHandler := handler.NewRequestHandler(requestService, validate, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, logger)
	profileHandler := handler.NewProfileHandler(directoryService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         authHandler,
		AdminHandler:        adminHandler,
		RequestHandler:      requestHandler,
		ReportHandler:       reportHandler,
		NotificationHandler: notificationHandler,
		ProfileHandler:      profileHandler,
		Principal:           middleware.ResolvePrincipal(cfg.SessionSecret),
		AttachUser:          middleware.AttachUser(directoryService, logger),
		StatusGate:          middleware.StatusGate(),
		SubmitLimit:         middleware.RateLimit("form_submit", 10, time.Minute),
		ReportLimit:         middleware.RateLimit("report_file", 5, time.Minute),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func buildRenderer(cfg config.Config, logger zerolog.Logger) (typeset.Renderer, func() error, error) {
	switch cfg.Renderer {
	case config.RendererChrome:
		return typeset.NewChromeRenderer(cfg.RenderTimeout, logger), nil, nil
	default:
		renderer, err := typeset.NewDockerTypesetter(typeset.DockerConfig{
			Host:    cfg.DockerHost,
			Image:   cfg.RendererImage,
			Timeout: cfg.RenderTimeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return renderer, renderer.Close, nil
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
