package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/registry"
)

// SubscriptionHandler handles subscription registration.
type SubscriptionHandler struct {
	Registry *registry.Registry
	Logger   *zap.Logger
}

func NewSubscriptionHandler(reg *registry.Registry, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Registry: reg, Logger: logger}
}

type updateSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Publisher      string `json:"publisher"`
	EventType      string `json:"event_type"`
	EndpointURL    string `json:"endpoint_url"`
}

// UpdateSubscription handles POST /subscriptions: upserts a
// subscription, generating an id when none is supplied.
func (h *SubscriptionHandler) UpdateSubscription(c *fiber.Ctx) error {
	var req updateSubscriptionRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "EVBK-NOTJSON",
			"message": "The supplied body was either empty, or not well-formed JSON.",
		})
	}

	if req.Publisher == "" || req.EventType == "" || req.EndpointURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    "EVBK-INVALIDREQUEST",
			"message": "publisher, event_type and endpoint_url are required",
		})
	}

	subscription := &models.Subscription{
		PublisherCode: req.Publisher,
		EventType:     req.EventType,
		EndpointURL:   req.EndpointURL,
	}

	if req.SubscriptionID != "" {
		id, err := uuid.Parse(req.SubscriptionID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"code":    "EVBK-INVALIDREQUEST",
				"message": "subscription_id must be a valid UUID",
			})
		}
		subscription.ID = id
	}

	if err := h.Registry.UpdateSubscription(c.UserContext(), subscription); err != nil {
		h.Logger.Error("Failed to store subscription",
			zap.String("publisher", req.Publisher),
			zap.String("event_type", req.EventType),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store subscription",
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id": subscription.ID.String(),
	})
}
