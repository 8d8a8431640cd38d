package domain

import (
	"fmt"
	"strings"
	"time"
)

// Schedule is a named recurring rule binding one template to a set of target
// users. The engine reads schedules during its tick scan and mutates only
// LastTriggeredAt; everything else changes through schedule management calls.
type Schedule struct {
	ID              string
	Name            string
	TemplateID      string
	Active          bool
	Trigger         string
	Timezone        string
	TargetUserIDs   []string
	Variables       map[string]string
	LastTriggeredAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: schedule name is required", ErrValidation)
	}
	if strings.TrimSpace(s.TemplateID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if strings.TrimSpace(s.Trigger) == "" {
		return fmt.Errorf("%w: trigger expression is required", ErrValidation)
	}
	if len(s.TargetUserIDs) == 0 {
		return fmt.Errorf("%w: at least one target user is required", ErrValidation)
	}
	for _, userID := range s.TargetUserIDs {
		if strings.TrimSpace(userID) == "" {
			return fmt.Errorf("%w: target user ids must be non-empty", ErrValidation)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can hand schedules across goroutines
// without sharing the slice and map headers.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	clone := *s
	clone.TargetUserIDs = append([]string(nil), s.TargetUserIDs...)
	if s.Variables != nil {
		clone.Variables = make(map[string]string, len(s.Variables))
		for k, v := range s.Variables {
			clone.Variables[k] = v
		}
	}
	if s.LastTriggeredAt != nil {
		at := *s.LastTriggeredAt
		clone.LastTriggeredAt = &at
	}
	return &clone
}

// ScheduleUpdate is a partial update; nil fields keep their current value.
type ScheduleUpdate struct {
	Name          *string
	TemplateID    *string
	Active        *bool
	Trigger       *string
	Timezone      *string
	TargetUserIDs *[]string
	Variables     *map[string]string
}
