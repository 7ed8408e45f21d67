package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marminbh/event-broker/internal/handlers"
)

// SetupRoutes configures all application routes with dependencies.
func SetupRoutes(
	app *fiber.App,
	publishHandler *handlers.PublishHandler,
	publisherHandler *handlers.PublisherHandler,
	subscriptionHandler *handlers.SubscriptionHandler,
	distributionHandler *handlers.DistributionHandler,
	healthHandler *handlers.HealthHandler,
) {
	app.Get("/health", healthHandler.HealthCheck)

	app.Post("/publish/:publisher/:eventType", publishHandler.Publish)
	app.Post("/events", publisherHandler.UpdatePublishedEvents)
	app.Post("/subscriptions", subscriptionHandler.UpdateSubscription)
	app.Get("/distributions", distributionHandler.List)
}
