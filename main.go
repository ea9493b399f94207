package main

import (
	"context"
	"coursehub/config"
	authControllers "coursehub/controllers/auth"
	courseControllers "coursehub/controllers/course"
	orderControllers "coursehub/controllers/order"
	"coursehub/database"
	"coursehub/logger"
	"coursehub/middleware"
	"coursehub/models"
	"coursehub/repository"
	"coursehub/routers"
	"coursehub/services"
	"coursehub/services/events"
	"coursehub/services/media"
	"coursehub/services/payment"
	"coursehub/utils"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Dependencies are the external collaborators the HTTP application is built on.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Uploader  media.Uploader
	Processor payment.Processor
	Publisher events.Publisher
	Notifier  services.Notifier
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.Env, cfg.LogLevel)

	db, err := database.ConnectDb(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to connect to the database")
	}

	uploader, err := newUploader(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize media store")
	}

	var notifier services.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = utils.NewEmailNotifier(cfg.SendGridAPIKey, cfg.EmailSender)
	}
	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)

	app, purchases := newApp(Dependencies{
		Config:    cfg,
		DB:        db,
		Uploader:  uploader,
		Processor: payment.NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction, cfg.PaymentIntentTTL),
		Publisher: publisher,
		Notifier:  notifier,
	})

	scheduler, err := utils.InitializeIntentScheduler(purchases, cfg.PaymentIntentTTL)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to start payment intent scheduler")
	}

	go func() {
		logger.Log.Infof("Server is running on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Log.WithError(err).Fatal("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logger.Log.WithError(err).Error("Server shutdown failed")
	}
	<-scheduler.Stop().Done()
	if err := publisher.Close(); err != nil {
		logger.Log.WithError(err).Warn("Failed to close event publisher")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func newUploader(cfg *config.Config) (media.Uploader, error) {
	if cfg.MediaDriver == "local" {
		return media.NewLocalUploader(cfg.MediaLocalDir, cfg.MediaPublicURL), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return media.NewMinioUploader(ctx, cfg)
}

// newApp wires repositories, services and routes into a fiber application.
func newApp(deps Dependencies) (*fiber.App, *services.PurchaseService) {
	cfg := deps.Config

	users := repository.NewUserRepository(deps.DB)
	courses := repository.NewCourseRepository(deps.DB)
	purchaseRepo := repository.NewPurchaseRepository(deps.DB)
	orders := repository.NewOrderRepository(deps.DB)

	identity := services.NewIdentityService(users, map[string][]byte{
		models.RoleAdmin: []byte(cfg.JWTAdminKey),
		models.RoleUser:  []byte(cfg.JWTUserKey),
	}, cfg.SaltRound)
	courseService := services.NewCourseService(courses, purchaseRepo, deps.Uploader, deps.Publisher, cfg.UploadConcurrency, cfg.CoverMaxDimension)
	purchaseService := services.NewPurchaseService(courses, purchaseRepo, orders, users, deps.Processor, deps.Notifier, deps.Publisher, cfg.PaymentCurrency)

	app := fiber.New(fiber.Config{
		AppName:      "coursehub",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.PrometheusMiddleware())
	app.Use(cors.New(corsConfig(cfg.AllowedOrigins)))
	app.Use(compress.New())

	if cfg.MediaDriver == "local" {
		app.Static("/uploads", cfg.MediaLocalDir)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "OK",
			"message":   "Server is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	app.Get("/metrics", middleware.MetricsHandler())

	secure := cfg.IsProduction()
	routers.Setup(app, routers.Handlers{
		AdminAuth:   authControllers.NewAuthController(identity, models.RoleAdmin, secure),
		UserAuth:    authControllers.NewAuthController(identity, models.RoleUser, secure),
		Courses:     courseControllers.NewCourseController(courseService, purchaseService),
		Orders:      orderControllers.NewOrderController(purchaseService),
		AdminGuard:  middleware.NewGuard([]byte(cfg.JWTAdminKey), models.RoleAdmin, users),
		UserGuard:   middleware.NewGuard([]byte(cfg.JWTUserKey), models.RoleUser, users),
		AuthLimiter: middleware.AuthRateLimiter(10, time.Minute),
	})

	return app, purchaseService
}

func corsConfig(origins []string) cors.Config {
	allowOrigins := strings.Join(origins, ",")
	return cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Content-Type,Authorization",
		// credentialed requests cannot use a wildcard origin
		AllowCredentials: !strings.Contains(allowOrigins, "*"),
	}
}
