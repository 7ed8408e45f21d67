package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marminbh/event-broker/internal/models"
	"github.com/marminbh/event-broker/internal/store"
)

// DistributionHandler exposes the delivery audit trail. Terminal
// distributions are never deleted, so they remain queryable here.
type DistributionHandler struct {
	Distributions store.Distributions
	Logger        *zap.Logger
}

func NewDistributionHandler(distributions store.Distributions, logger *zap.Logger) *DistributionHandler {
	return &DistributionHandler{Distributions: distributions, Logger: logger}
}

type distributionsResponse struct {
	Distributions []distributionDTO `json:"distributions"`
	HasMore       bool              `json:"has_more"`
}

type distributionDTO struct {
	ID             string  `json:"id"`
	SubscriptionID string  `json:"subscription_id"`
	EventID        string  `json:"event_id"`
	Status         string  `json:"status"`
	Attempts       int     `json:"attempts"`
	LastError      *string `json:"last_error"`
	UpdatedAt      string  `json:"updated_at"`
}

// List handles GET /distributions.
// Query parameters:
//   - event_id (optional): filter by event
//   - subscription_id (optional): filter by subscription
//   - status (optional): filter by distribution status
//   - limit (optional, default 25), offset (optional, default 0)
func (h *DistributionHandler) List(c *fiber.Ctx) error {
	filter := store.DistributionFilter{Limit: 25}

	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "event_id must be a valid UUID",
			})
		}
		filter.EventID = &id
	}

	if raw := c.Query("subscription_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "subscription_id must be a valid UUID",
			})
		}
		filter.SubscriptionID = &id
	}

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseDistributionStatus(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		filter.Status = &status
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		filter.Limit = limit
	}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "offset must be a non-negative integer",
			})
		}
		filter.Offset = offset
	}

	// Fetch one extra row to determine has_more.
	requested := filter.Limit
	filter.Limit = requested + 1

	distributions, err := h.Distributions.List(c.UserContext(), filter)
	if err != nil {
		h.Logger.Error("Failed to list distributions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch distributions",
		})
	}

	hasMore := len(distributions) > requested
	if hasMore {
		distributions = distributions[:requested]
	}

	dtos := make([]distributionDTO, 0, len(distributions))
	for _, distribution := range distributions {
		dtos = append(dtos, distributionDTO{
			ID:             distribution.ID.String(),
			SubscriptionID: distribution.SubscriptionID.String(),
			EventID:        distribution.EventID.String(),
			Status:         string(distribution.Status),
			Attempts:       distribution.Attempts,
			LastError:      distribution.LastError,
			UpdatedAt:      distribution.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(distributionsResponse{
		Distributions: dtos,
		HasMore:       hasMore,
	})
}
