package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/config"
	"github.com/marminbh/event-broker/internal/database"
	"github.com/marminbh/event-broker/internal/delivery"
	"github.com/marminbh/event-broker/internal/handlers"
	"github.com/marminbh/event-broker/internal/ingest"
	"github.com/marminbh/event-broker/internal/logger"
	"github.com/marminbh/event-broker/internal/queue"
	"github.com/marminbh/event-broker/internal/rabbitmq"
	"github.com/marminbh/event-broker/internal/registry"
	"github.com/marminbh/event-broker/internal/routes"
	"github.com/marminbh/event-broker/internal/scheduler"
	"github.com/marminbh/event-broker/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, log)
	if err := rmq.Connect(); err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	publishers := store.NewPublisherStore(db)
	events := store.NewEventStore(db)
	subscriptions := store.NewSubscriptionStore(db)
	distributions := store.NewDistributionStore(db)
	distributionQueue := queue.NewDistributionQueue(rmq, &cfg.Queue)

	ingestService := ingest.NewService(publishers, events, subscriptions, distributions, distributionQueue, log)
	reg := registry.New(publishers, subscriptions, log)

	transport := delivery.NewHTTPTransport(cfg.Worker.HTTPTimeoutSeconds, cfg.Worker.MaxResponseBodySize)
	sender := delivery.NewSender(distributions, events, subscriptions, transport, log)
	worker := delivery.NewWorker(&cfg.Queue, &cfg.Worker, rmq, sender, log)
	if err := worker.Start(); err != nil {
		log.Fatal("Failed to start delivery worker", zap.Error(err))
	}

	var retryScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		retryScheduler = scheduler.New(&cfg.Scheduler, distributions, distributionQueue, log)
		retryScheduler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:      "Event Broker",
		ServerHeader: "Fiber",
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	routes.SetupRoutes(
		app,
		handlers.NewPublishHandler(ingestService, log),
		handlers.NewPublisherHandler(reg, log),
		handlers.NewSubscriptionHandler(reg, log),
		handlers.NewDistributionHandler(distributions, log),
		handlers.NewHealthHandler(db, rmq),
	)

	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		log.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	}
	if retryScheduler != nil {
		retryScheduler.Stop()
	}
	if err := worker.Stop(); err != nil {
		log.Error("Error stopping delivery worker", zap.Error(err))
	}

	log.Info("Server stopped")
}
