package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aralis/internal/cache"
	"aralis/internal/config"
	"aralis/internal/database"
	"aralis/internal/handlers"
	applogger "aralis/internal/logger"
	"aralis/internal/mailer"
	"aralis/internal/metrics"
	"aralis/internal/notifications"
	"aralis/internal/repositories"
	"aralis/internal/seeder"
	"aralis/internal/services"
	"aralis/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := applogger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app, cleanup, err := NewApp(context.Background(), cfg, log, registry)
	if err != nil {
		log.Fatal("failed to initialise application", zap.Error(err))
	}
	defer cleanup()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", zap.String("addr", cfg.AppPort))
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("error during fiber shutdown", zap.Error(err))
	}
	log.Info("server gracefully stopped")
}

type repositorySet struct {
	users          repositories.UserRepository
	products       repositories.ProductRepository
	orders         repositories.OrderRepository
	resets         repositories.PasswordResetRepository
	customizations repositories.CustomizationRepository
}

func openRepositories(cfg config.Config, log *zap.Logger) (repositorySet, *gorm.DB, error) {
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory repositories; data is lost on restart")
		users := repositories.NewMockUserRepository()
		return repositorySet{
			users:          users,
			products:       repositories.NewMockProductRepository(),
			orders:         repositories.NewMockOrderRepository(),
			resets:         repositories.NewMockPasswordResetRepository(users),
			customizations: repositories.NewMockCustomizationRepository(),
		}, nil, nil
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return repositorySet{}, nil, err
	}
	if err := database.Migrate(db); err != nil {
		return repositorySet{}, nil, err
	}
	return repositorySet{
		users:          repositories.NewGORMUserRepository(db),
		products:       repositories.NewGORMProductRepository(db),
		orders:         repositories.NewGORMOrderRepository(db),
		resets:         repositories.NewGORMPasswordResetRepository(db),
		customizations: repositories.NewGORMCustomizationRepository(db),
	}, db, nil
}

func newMailer(cfg config.Config, mq *rabbitmq.Client, log *zap.Logger) (mailer.Mailer, error) {
	smtpMailer := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})

	switch cfg.MailDriver {
	case "smtp":
		return smtpMailer, nil
	case "queue":
		worker := mailer.NewWorker(smtpMailer, log)
		err := mq.Consume(rabbitmq.EmailQueue, func(msg amqp.Delivery) error {
			return worker.Handle(msg.Body)
		})
		if err != nil {
			return nil, err
		}
		return mailer.NewQueueMailer(mq), nil
	default:
		return mailer.NewLogMailer(log), nil
	}
}

// NewApp wires repositories, services and handlers into a Fiber app.
// The returned cleanup closes every connection NewApp opened.
func NewApp(ctx context.Context, cfg config.Config, log *zap.Logger, registry *prometheus.Registry) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*fiber.App, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	repos, db, err := openRepositories(cfg, log)
	if err != nil {
		return fail(err)
	}
	if db != nil {
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		})
	}

	store, err := cache.NewStore(ctx, cache.Config{
		Driver:     cfg.CacheDriver,
		Addr:       cfg.RedisAddr,
		Password:   cfg.RedisPassword,
		DB:         cfg.RedisDB,
		DefaultTTL: cfg.CacheTTL,
	}, log)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { store.Close() })

	var mq *rabbitmq.Client
	var publisher services.EventPublisher
	if cfg.RabbitMQEnabled {
		mq, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			return fail(err)
		}
		publisher = mq
		closers = append(closers, func() {
			if err := mq.Close(); err != nil {
				log.Warn("failed to close RabbitMQ client", zap.Error(err))
			}
		})
	}

	mail, err := newMailer(cfg, mq, log)
	if err != nil {
		return fail(err)
	}

	met := metrics.New(registry)
	notifier, err := notifications.New(mail, notifications.Config{
		ShopEmail:   cfg.ShopEmail,
		FrontendURL: cfg.FrontendURL,
	}, met, log)
	if err != nil {
		return fail(err)
	}

	authService := services.NewAuthService(repos.users, cfg.JWTSecret, cfg.JWTTTL, log)
	productService := services.NewProductService(repos.products, store, cfg.CacheTTL, log)
	cartService := services.NewCartService(repos.products)
	allocator := services.NewOrderNumberAllocator(repos.orders, cfg.OrderNumberPrefix, cfg.OrderNumberMaxAttempts, met, log)

	if cfg.DBDriver == "memory" {
		if _, err := seeder.Catalog(ctx, productService, log); err != nil {
			log.Warn("failed to seed demo catalog", zap.Error(err))
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "aralis",
		ErrorHandler: handlers.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.FrontendURL,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	handlers.RegisterRoutes(app.Group("/api/v1"), handlers.Services{
		Auth:          authService,
		PasswordReset: services.NewPasswordResetService(repos.users, repos.resets, notifier, cfg.ResetTokenTTL, met, log),
		Account:       services.NewAccountService(repos.users, notifier, log),
		Products:      productService,
		Cart:          cartService,
		Orders:        services.NewOrderService(repos.orders, cartService, allocator, publisher, notifier, cfg.OrderInsertMaxRetries, met, log),
		Customization: services.NewCustomizationService(repos.customizations, notifier, met, log),
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		checks := fiber.Map{"rabbitmq": "disabled", "database": cfg.DBDriver}
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
				checks["database"] = "unreachable"
				status = fiber.StatusServiceUnavailable
			}
		}
		if mq != nil {
			checks["rabbitmq"] = "connected"
		}
		state := "healthy"
		if status != fiber.StatusOK {
			state = "degraded"
		}
		return c.Status(status).JSON(fiber.Map{
			"status": state,
			"time":   time.Now().Format(time.RFC3339),
			"checks": checks,
		})
	})

	return app, cleanup, nil
}
