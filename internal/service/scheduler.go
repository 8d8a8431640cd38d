package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"urgency-engine/internal/domain"
	"urgency-engine/internal/observability"
	"urgency-engine/internal/ratelimit"
	"urgency-engine/internal/repository"
	"urgency-engine/internal/trigger"
)

const defaultTickInterval = 60 * time.Second

// Scheduler runs the periodic tick scan: every interval it walks the active
// schedules, evaluates trigger eligibility against lastTriggeredAt, and fans
// the due ones out through the engine. A failure on one schedule or one
// target user never stops the rest of the scan.
type Scheduler struct {
	schedules repository.ScheduleRepository
	templates repository.TemplateRegistry
	engine    *Engine
	limiter   ratelimit.RateLimiter
	logger    *zap.Logger
	metrics   *observability.Metrics
	interval  time.Duration
	now       func() time.Time
}

func NewScheduler(
	schedules repository.ScheduleRepository,
	templates repository.TemplateRegistry,
	engine *Engine,
	interval time.Duration,
	logger *zap.Logger,
) (*Scheduler, error) {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		schedules: schedules,
		templates: templates,
		engine:    engine,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}, nil
}

func (s *Scheduler) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *Scheduler) SetRateLimiter(limiter ratelimit.RateLimiter) {
	if s == nil {
		return
	}
	s.limiter = limiter
}

func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.scanDue(ctx)
		}
	}
}

func (s *Scheduler) scanDue(ctx context.Context) {
	if s.metrics != nil {
		s.metrics.IncScheduleTick()
	}
	now := s.now()

	for _, schedule := range s.schedules.ListActive() {
		rule, err := trigger.Parse(schedule.Trigger)
		if err != nil {
			// Creation-time validation should make this unreachable;
			// a bad stored expression must not kill the scan.
			s.logger.Error("stored trigger expression failed to parse",
				zap.String("scheduleId", schedule.ID),
				zap.String("trigger", schedule.Trigger),
				zap.Error(err),
			)
			continue
		}
		if !rule.Due(schedule.LastTriggeredAt, schedule.CreatedAt, now) {
			continue
		}

		if err := s.schedules.StampTriggered(schedule.ID, now); err != nil {
			s.logger.Error("failed to stamp schedule trigger time",
				zap.String("scheduleId", schedule.ID),
				zap.Error(err),
			)
			continue
		}

		s.fanOut(ctx, &schedule)
	}
}

func (s *Scheduler) fanOut(ctx context.Context, schedule *domain.Schedule) {
	scope := "unknown"
	if template, err := s.templates.GetByID(schedule.TemplateID); err == nil {
		scope = strings.ToLower(template.Priority.String())
	}

	for _, userID := range schedule.TargetUserIDs {
		if ctx.Err() != nil {
			return
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx, scope); err != nil {
				s.logger.Warn("dispatch rate limiter wait failed",
					zap.String("scheduleId", schedule.ID),
					zap.Error(err),
				)
				return
			}
		}

		if _, err := s.engine.DispatchFromSchedule(ctx, schedule, userID); err != nil {
			s.logger.Error("dispatch aborted",
				zap.String("scheduleId", schedule.ID),
				zap.String("userId", userID),
				zap.Error(err),
			)
			continue
		}
	}
}
