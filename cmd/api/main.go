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

	"github.com/noah-isme/docserver-api/internal/config"
	"github.com/noah-isme/docserver-api/internal/database"
	"github.com/noah-isme/docserver-api/internal/handler"
	"github.com/noah-isme/docserver-api/internal/middleware"
	"github.com/noah-isme/docserver-api/internal/models"
	"github.com/noah-isme/docserver-api/internal/router"
	"github.com/noah-isme/docserver-api/internal/service"
	"github.com/noah-isme/docserver-api/pkg/filestore"
	"github.com/noah-isme/docserver-api/pkg/ocr"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("failed to load timezone %q: %v", cfg.Timezone, err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Department{}, &models.DocType{}, &models.RequiredField{}, &models.Deadline{},
		&models.Student{}, &models.Admin{},
		&models.Submission{}, &models.SubmissionFile{}, &models.SubmissionFieldValue{},
		&models.SubmissionHistory{}, &models.ReviewResult{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	// NATS is optional: without it, events are simply not published.
	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, submission events disabled")
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	store, err := filestore.New(filestore.Config{
		BaseDir: cfg.UploadDir,
		BaseURL: cfg.UploadBaseURL,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create file store: %v", err)
	}

	reviewClient := ocr.New(ocr.Config{
		BaseURL:       cfg.ReviewBaseURL,
		ReviewTimeout: cfg.ReviewTimeout,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	repos := service.BuildRepositories(db)
	events := service.NewEventPublisher(natsConn, "", logger)
	orchestrator := service.NewReviewOrchestrator(db, repos, store, reviewClient, events, logger)

	submissionService := service.NewSubmissionService(db, repos, store, orchestrator, events, redisClient, cfg.MyListingCacheTTL, validate, logger, loc)
	adminService := service.NewAdminSubmissionService(db, repos, events, logger)
	docTypeService := service.NewDocTypeService(db, repos, store, validate, logger, loc)

	submissionHandler := handler.NewSubmissionHandler(submissionService, logger)
	adminSubmissionHandler := handler.NewAdminSubmissionHandler(adminService, logger)
	docTypeHandler := handler.NewDocTypeHandler(docTypeService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:      submissionHandler,
		AdminSubmissionHandler: adminSubmissionHandler,
		DocTypeHandler:         docTypeHandler,
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, orchestrator)
}

func waitForShutdown(app *fiber.App, orchestrator *service.ReviewOrchestrator) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	// In-flight review attempts finish before the process exits.
	orchestrator.Wait()

	log.Println("server stopped")
}
