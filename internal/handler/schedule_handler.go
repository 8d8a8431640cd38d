package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"urgency-engine/internal/domain"
)

type ScheduleService interface {
	Create(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error)
	Update(ctx context.Context, id string, update domain.ScheduleUpdate) (*domain.Schedule, error)
	Delete(ctx context.Context, id string) bool
	Get(ctx context.Context, id string) (*domain.Schedule, error)
	List(ctx context.Context) []domain.Schedule
}

type ScheduleHandler struct {
	service ScheduleService
}

func NewScheduleHandler(service ScheduleService) (*ScheduleHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("schedule service is required")
	}
	return &ScheduleHandler{service: service}, nil
}

func RegisterScheduleRoutes(router fiber.Router, service ScheduleService) error {
	h, err := NewScheduleHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/schedules", h.CreateSchedule)
	v1.Get("/schedules", h.ListSchedules)
	v1.Get("/schedules/:id", h.GetSchedule)
	v1.Patch("/schedules/:id", h.UpdateSchedule)
	v1.Delete("/schedules/:id", h.DeleteSchedule)

	return nil
}

type createScheduleRequest struct {
	Name          string            `json:"name"`
	TemplateID    string            `json:"templateId"`
	Active        bool              `json:"active"`
	Trigger       string            `json:"trigger"`
	Timezone      string            `json:"timezone"`
	TargetUserIDs []string          `json:"targetUserIds"`
	Variables     map[string]string `json:"variables"`
}

type updateScheduleRequest struct {
	Name          *string            `json:"name"`
	TemplateID    *string            `json:"templateId"`
	Active        *bool              `json:"active"`
	Trigger       *string            `json:"trigger"`
	Timezone      *string            `json:"timezone"`
	TargetUserIDs *[]string          `json:"targetUserIds"`
	Variables     *map[string]string `json:"variables"`
}

type scheduleResponse struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	TemplateID      string            `json:"templateId"`
	Active          bool              `json:"active"`
	Trigger         string            `json:"trigger"`
	Timezone        string            `json:"timezone,omitempty"`
	TargetUserIDs   []string          `json:"targetUserIds"`
	Variables       map[string]string `json:"variables,omitempty"`
	LastTriggeredAt *time.Time        `json:"lastTriggeredAt,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

func (h *ScheduleHandler) CreateSchedule(c *fiber.Ctx) error {
	var req createScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	schedule := &domain.Schedule{
		Name:          req.Name,
		TemplateID:    req.TemplateID,
		Active:        req.Active,
		Trigger:       req.Trigger,
		Timezone:      req.Timezone,
		TargetUserIDs: req.TargetUserIDs,
		Variables:     req.Variables,
	}

	created, err := h.service.Create(c.Context(), schedule)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toScheduleResponse(created))
}

func (h *ScheduleHandler) UpdateSchedule(c *fiber.Ctx) error {
	var req updateScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	update := domain.ScheduleUpdate{
		Name:          req.Name,
		TemplateID:    req.TemplateID,
		Active:        req.Active,
		Trigger:       req.Trigger,
		Timezone:      req.Timezone,
		TargetUserIDs: req.TargetUserIDs,
		Variables:     req.Variables,
	}

	updated, err := h.service.Update(c.Context(), strings.TrimSpace(c.Params("id")), update)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toScheduleResponse(updated))
}

func (h *ScheduleHandler) DeleteSchedule(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if !h.service.Delete(c.Context(), id) {
		return fiber.NewError(fiber.StatusNotFound, "schedule not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ScheduleHandler) GetSchedule(c *fiber.Ctx) error {
	schedule, err := h.service.Get(c.Context(), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.Status(fiber.StatusOK).JSON(toScheduleResponse(schedule))
}

func (h *ScheduleHandler) ListSchedules(c *fiber.Ctx) error {
	schedules := h.service.List(c.Context())
	responses := make([]scheduleResponse, 0, len(schedules))
	for i := range schedules {
		responses = append(responses, toScheduleResponse(&schedules[i]))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": responses})
}

func toScheduleResponse(s *domain.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:              s.ID,
		Name:            s.Name,
		TemplateID:      s.TemplateID,
		Active:          s.Active,
		Trigger:         s.Trigger,
		Timezone:        s.Timezone,
		TargetUserIDs:   s.TargetUserIDs,
		Variables:       s.Variables,
		LastTriggeredAt: s.LastTriggeredAt,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}
