package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"urgency-engine/internal/domain"
)

// NotificationEngine is the engine surface the HTTP layer consumes.
type NotificationEngine interface {
	SendTest(ctx context.Context, userID, templateID string, vars map[string]string) (*domain.Notification, error)
	Respond(ctx context.Context, notificationID, text string) (*domain.Notification, error)
	GetNotification(notificationID string) (*domain.Notification, error)
	GetActive(userID string) (*domain.Notification, error)
	GetHistory(userID string) []domain.Notification
}

type NotificationHandler struct {
	engine NotificationEngine
}

func NewNotificationHandler(engine NotificationEngine) (*NotificationHandler, error) {
	if engine == nil {
		return nil, fmt.Errorf("notification engine is required")
	}
	return &NotificationHandler{engine: engine}, nil
}

func RegisterNotificationRoutes(router fiber.Router, engine NotificationEngine) error {
	h, err := NewNotificationHandler(engine)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications/test", h.SendTestNotification)
	v1.Get("/notifications/:id", h.GetNotification)
	v1.Post("/notifications/:id/respond", h.RespondNotification)
	v1.Get("/users/:userId/notifications/active", h.GetActiveNotification)
	v1.Get("/users/:userId/notifications", h.GetHistory)

	return nil
}

type sendTestRequest struct {
	UserID     string            `json:"userId"`
	TemplateID string            `json:"templateId"`
	Variables  map[string]string `json:"variables"`
}

type respondRequest struct {
	Text string `json:"text"`
}

type notificationResponse struct {
	ID                  string     `json:"id"`
	ScheduleID          string     `json:"scheduleId,omitempty"`
	TemplateID          string     `json:"templateId"`
	UserID              string     `json:"userId"`
	Content             string     `json:"content"`
	Status              string     `json:"status"`
	Priority            string     `json:"priority"`
	Type                string     `json:"type"`
	SentAt              time.Time  `json:"sentAt"`
	ExpiresAt           time.Time  `json:"expiresAt"`
	RespondedAt         *time.Time `json:"respondedAt,omitempty"`
	ResponseTimeMs      *int64     `json:"responseTimeMs,omitempty"`
	ResponseText        *string    `json:"responseText,omitempty"`
	AutoResponseSent    bool       `json:"autoResponseSent"`
	AutoResponseContent *string    `json:"autoResponseContent,omitempty"`
}

func (h *NotificationHandler) SendTestNotification(c *fiber.Ctx) error {
	var req sendTestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	n, err := h.engine.SendTest(c.Context(), strings.TrimSpace(req.UserID), strings.TrimSpace(req.TemplateID), req.Variables)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toNotificationResponse(n))
}

func (h *NotificationHandler) RespondNotification(c *fiber.Ctx) error {
	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	n, err := h.engine.Respond(c.Context(), strings.TrimSpace(c.Params("id")), req.Text)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(n))
}

func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	n, err := h.engine.GetNotification(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(n))
}

func (h *NotificationHandler) GetActiveNotification(c *fiber.Ctx) error {
	n, err := h.engine.GetActive(strings.TrimSpace(c.Params("userId")))
	if err != nil {
		return toHTTPError(err)
	}
	if n == nil {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"active": nil})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"active": toNotificationResponse(n)})
}

func (h *NotificationHandler) GetHistory(c *fiber.Ctx) error {
	history := h.engine.GetHistory(strings.TrimSpace(c.Params("userId")))
	responses := make([]notificationResponse, 0, len(history))
	for i := range history {
		responses = append(responses, toNotificationResponse(&history[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:                  n.ID,
		ScheduleID:          n.ScheduleID,
		TemplateID:          n.TemplateID,
		UserID:              n.UserID,
		Content:             n.Content,
		Status:              n.Status.String(),
		Priority:            n.Priority.String(),
		Type:                n.Type.String(),
		SentAt:              n.SentAt,
		ExpiresAt:           n.ExpiresAt,
		RespondedAt:         n.RespondedAt,
		ResponseTimeMs:      n.ResponseTimeMs,
		ResponseText:        n.ResponseText,
		AutoResponseSent:    n.AutoResponseSent,
		AutoResponseContent: n.AutoResponseContent,
	}
}
