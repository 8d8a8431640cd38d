package repository

import (
	"sort"
	"sync"
	"time"

	"urgency-engine/internal/domain"
)

// ScheduleRepository stores recurring dispatch rules. Mutations must be safe
// to call concurrently with the engine's tick scan; reads return snapshot
// copies taken under the lock.
type ScheduleRepository interface {
	Create(schedule *domain.Schedule) error
	GetByID(id string) (*domain.Schedule, error)
	Update(id string, update domain.ScheduleUpdate) (*domain.Schedule, error)
	Delete(id string) bool
	List() []domain.Schedule
	ListActive() []domain.Schedule
	StampTriggered(id string, at time.Time) error
}

type MemoryScheduleRepo struct {
	mu        sync.RWMutex
	schedules map[string]*domain.Schedule
}

func NewMemoryScheduleRepo() *MemoryScheduleRepo {
	return &MemoryScheduleRepo{schedules: make(map[string]*domain.Schedule)}
}

func (r *MemoryScheduleRepo) Create(schedule *domain.Schedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schedules[schedule.ID]; exists {
		return domain.ErrConflict
	}
	r.schedules[schedule.ID] = schedule.Clone()
	return nil
}

func (r *MemoryScheduleRepo) GetByID(id string) (*domain.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schedule, ok := r.schedules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return schedule.Clone(), nil
}

func (r *MemoryScheduleRepo) Update(id string, update domain.ScheduleUpdate) (*domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	schedule, ok := r.schedules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	patched := schedule.Clone()
	if update.Name != nil {
		patched.Name = *update.Name
	}
	if update.TemplateID != nil {
		patched.TemplateID = *update.TemplateID
	}
	if update.Active != nil {
		patched.Active = *update.Active
	}
	if update.Trigger != nil {
		patched.Trigger = *update.Trigger
	}
	if update.Timezone != nil {
		patched.Timezone = *update.Timezone
	}
	if update.TargetUserIDs != nil {
		patched.TargetUserIDs = append([]string(nil), (*update.TargetUserIDs)...)
	}
	if update.Variables != nil {
		patched.Variables = make(map[string]string, len(*update.Variables))
		for k, v := range *update.Variables {
			patched.Variables[k] = v
		}
	}
	if err := patched.Validate(); err != nil {
		return nil, err
	}
	patched.UpdatedAt = time.Now().UTC()

	r.schedules[id] = patched
	return patched.Clone(), nil
}

func (r *MemoryScheduleRepo) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[id]; !ok {
		return false
	}
	delete(r.schedules, id)
	return true
}

func (r *MemoryScheduleRepo) List() []domain.Schedule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(*domain.Schedule) bool { return true })
}

func (r *MemoryScheduleRepo) ListActive() []domain.Schedule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(func(s *domain.Schedule) bool { return s.Active })
}

func (r *MemoryScheduleRepo) StampTriggered(id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	schedule, ok := r.schedules[id]
	if !ok {
		return domain.ErrNotFound
	}
	stamped := at
	schedule.LastTriggeredAt = &stamped
	return nil
}

func (r *MemoryScheduleRepo) snapshot(keep func(*domain.Schedule) bool) []domain.Schedule {
	list := make([]domain.Schedule, 0, len(r.schedules))
	for _, schedule := range r.schedules {
		if keep(schedule) {
			list = append(list, *schedule.Clone())
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}
