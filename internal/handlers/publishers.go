package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/registry"
)

// PublisherHandler handles publisher registration.
type PublisherHandler struct {
	Registry *registry.Registry
	Logger   *zap.Logger
}

func NewPublisherHandler(reg *registry.Registry, logger *zap.Logger) *PublisherHandler {
	return &PublisherHandler{Registry: reg, Logger: logger}
}

// UpdatePublishedEvents handles POST /events: upserts a publisher and
// the full set of events it publishes.
func (h *PublisherHandler) UpdatePublishedEvents(c *fiber.Ctx) error {
	var doc registry.PublisherDocument
	if err := json.Unmarshal(c.Body(), &doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "EVBK-NOTJSON",
			"message": "The supplied body was either empty, or not well-formed JSON.",
		})
	}

	publisher, err := h.Registry.UpdatePublishedEvents(c.UserContext(), &doc)
	if err != nil {
		h.Logger.Warn("Rejected publisher update",
			zap.String("publisher", doc.Info.Code),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "EVBK-INVALIDREQUEST",
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"code":   publisher.Code,
		"events": len(publisher.Events),
	})
}
