package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/landmarks/backend/internal/config"
	"github.com/landmarks/backend/internal/database"
	"github.com/landmarks/backend/internal/handlers"
	"github.com/landmarks/backend/internal/middleware"
	"github.com/landmarks/backend/internal/services"
	"github.com/landmarks/backend/internal/storage"
	"github.com/landmarks/backend/pkg/logger"
	"github.com/landmarks/backend/pkg/utils"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB, cfg.Admin)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	imageStore, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}
	if minioStore, ok := imageStore.(*storage.MinIOStore); ok {
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("failed ensuring bucket: %v", err)
		}
	}

	ratingService := services.NewRatingService(db)

	authHandler := handlers.NewAuthHandler(db)
	categoriesHandler := handlers.NewCategoriesHandler(db)
	landmarksHandler := handlers.NewLandmarksHandler(db, imageStore, ratingService)
	reviewsHandler := handlers.NewReviewsHandler(db)
	mediaHandler := handlers.NewMediaHandler(imageStore)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 25 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/static/:filename", mediaHandler.Serve)

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/check", authMiddleware.RequireAuth, authHandler.Check)

	categoryRoutes := api.Group("/categories")
	categoryRoutes.Get("/", categoriesHandler.List)
	categoryRoutes.Post("/", authMiddleware.RequireAuth, middleware.AdminOnly, categoriesHandler.Create)
	categoryRoutes.Delete("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, categoriesHandler.Delete)

	landmarkRoutes := api.Group("/landmarks")
	landmarkRoutes.Get("/", landmarksHandler.List)
	landmarkRoutes.Get("/popular", landmarksHandler.Popular)
	landmarkRoutes.Get("/:id", landmarksHandler.Get)
	landmarkRoutes.Post("/", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Create)
	landmarkRoutes.Put("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Update)
	landmarkRoutes.Delete("/:id", authMiddleware.RequireAuth, middleware.AdminOnly, landmarksHandler.Delete)

	reviewRoutes := api.Group("/reviews")
	reviewRoutes.Get("/landmark/:landmarkId", reviewsHandler.ListForLandmark)
	reviewRoutes.Get("/:userId/reviews", authMiddleware.RequireAuth, reviewsHandler.ListForUser)
	reviewRoutes.Post("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Create)
	reviewRoutes.Put("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Update)
	reviewRoutes.Delete("/:userId/:landmarkId", authMiddleware.RequireAuth, reviewsHandler.Delete)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":           cfg.Server.Port,
		"address":        listenAddr,
		"storage_driver": cfg.Storage.Driver,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
