package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"urgency-engine/internal/domain"
	"urgency-engine/internal/repository"
	"urgency-engine/internal/trigger"
)

// ScheduleService is the mutation surface for recurring rules. Trigger
// expressions and template references are validated here, at creation and
// update time, never during the tick scan.
type ScheduleService struct {
	schedules repository.ScheduleRepository
	templates repository.TemplateRegistry
	logger    *zap.Logger
	now       func() time.Time
}

func NewScheduleService(
	schedules repository.ScheduleRepository,
	templates repository.TemplateRegistry,
	logger *zap.Logger,
) (*ScheduleService, error) {
	if schedules == nil {
		return nil, fmt.Errorf("schedule repository is required")
	}
	if templates == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ScheduleService{
		schedules: schedules,
		templates: templates,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *ScheduleService) Create(ctx context.Context, schedule *domain.Schedule) (*domain.Schedule, error) {
	if schedule == nil {
		return nil, fmt.Errorf("%w: schedule is required", domain.ErrValidation)
	}

	schedule.Name = strings.TrimSpace(schedule.Name)
	schedule.TemplateID = strings.TrimSpace(schedule.TemplateID)
	schedule.Trigger = strings.TrimSpace(schedule.Trigger)

	if _, err := trigger.Parse(schedule.Trigger); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetByID(schedule.TemplateID); err != nil {
		return nil, fmt.Errorf("%w: unknown template %q", domain.ErrValidation, schedule.TemplateID)
	}

	schedule.ID = uuid.NewString()
	schedule.LastTriggeredAt = nil
	now := s.now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	if err := s.schedules.Create(schedule); err != nil {
		return nil, err
	}

	s.logger.Info("schedule created",
		zap.String("scheduleId", schedule.ID),
		zap.String("templateId", schedule.TemplateID),
		zap.String("trigger", schedule.Trigger),
		zap.Bool("active", schedule.Active),
	)

	return schedule.Clone(), nil
}

func (s *ScheduleService) Update(ctx context.Context, id string, update domain.ScheduleUpdate) (*domain.Schedule, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: schedule id is required", domain.ErrValidation)
	}

	if update.Trigger != nil {
		if _, err := trigger.Parse(*update.Trigger); err != nil {
			return nil, err
		}
	}
	if update.TemplateID != nil {
		if _, err := s.templates.GetByID(*update.TemplateID); err != nil {
			return nil, fmt.Errorf("%w: unknown template %q", domain.ErrValidation, *update.TemplateID)
		}
	}

	updated, err := s.schedules.Update(strings.TrimSpace(id), update)
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule updated", zap.String("scheduleId", updated.ID))
	return updated, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id string) bool {
	deleted := s.schedules.Delete(strings.TrimSpace(id))
	if deleted {
		s.logger.Info("schedule deleted", zap.String("scheduleId", id))
	}
	return deleted
}

func (s *ScheduleService) Get(ctx context.Context, id string) (*domain.Schedule, error) {
	return s.schedules.GetByID(strings.TrimSpace(id))
}

func (s *ScheduleService) List(ctx context.Context) []domain.Schedule {
	return s.schedules.List()
}
