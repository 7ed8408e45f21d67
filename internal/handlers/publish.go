package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/ingest"
)

// Ingestor accepts event publications.
type Ingestor interface {
	Ingest(ctx context.Context, publisherCode, eventType string, payload []byte) (uuid.UUID, error)
}

// PublishHandler handles event publications from producers.
type PublishHandler struct {
	Ingestor Ingestor
	Logger   *zap.Logger
}

func NewPublishHandler(ingestor Ingestor, logger *zap.Logger) *PublishHandler {
	return &PublishHandler{Ingestor: ingestor, Logger: logger}
}

// Publish handles POST /publish/:publisher/:eventType. The body is the
// raw event payload. Responds 202 with the event id, or 400 with a
// stable error code for request problems.
func (h *PublishHandler) Publish(c *fiber.Ctx) error {
	publisherCode := c.Params("publisher")
	eventType := c.Params("eventType")

	eventID, err := h.Ingestor.Ingest(c.UserContext(), publisherCode, eventType, c.Body())
	if err != nil {
		var requestErr *ingest.InvalidRequestError
		if errors.As(err, &requestErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "EVBK-" + requestErr.Code,
				"message": requestErr.Message,
			})
		}

		h.Logger.Error("Failed to ingest event",
			zap.String("publisher", publisherCode),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process event publication",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id": eventID.String(),
	})
}
