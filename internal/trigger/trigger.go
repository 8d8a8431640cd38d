// Package trigger parses and evaluates schedule trigger expressions.
//
// Two forms are supported: cron expressions handled by robfig/cron (standard
// five fields plus @hourly-style descriptors and @every durations) and plain
// Go durations ("5m", "2h30m") treated as fixed intervals since the last
// trigger. Expressions are validated at schedule creation, never at tick time.
package trigger

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"urgency-engine/internal/domain"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Rule is a parsed, immutable trigger expression.
type Rule struct {
	expr     string
	schedule cron.Schedule
	every    time.Duration
}

// Parse validates a trigger expression and returns its evaluable form.
func Parse(expr string) (*Rule, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: trigger expression is required", domain.ErrValidation)
	}

	// Bare durations ("90s", "5m") are fixed intervals; anything with
	// whitespace or an @-descriptor goes through the cron parser.
	if !strings.ContainsAny(trimmed, " \t") && !strings.HasPrefix(trimmed, "@") {
		every, err := time.ParseDuration(trimmed)
		if err == nil {
			if every < time.Minute {
				return nil, fmt.Errorf("%w: trigger interval %q is below 1m", domain.ErrValidation, trimmed)
			}
			return &Rule{expr: trimmed, every: every}, nil
		}
	}

	schedule, err := cronParser.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trigger expression %q: %v", domain.ErrValidation, trimmed, err)
	}
	return &Rule{expr: trimmed, schedule: schedule}, nil
}

// Expression returns the original, trimmed expression.
func (r *Rule) Expression() string { return r.expr }

// Next returns the first activation strictly after the given time.
func (r *Rule) Next(after time.Time) time.Time {
	if r.schedule != nil {
		return r.schedule.Next(after)
	}
	return after.Add(r.every)
}

// Due reports whether a schedule should fire now. The anchor is the last
// trigger time when one exists, otherwise the schedule's creation time, so a
// freshly created schedule waits one full period before its first dispatch.
func (r *Rule) Due(lastTriggeredAt *time.Time, createdAt, now time.Time) bool {
	anchor := createdAt
	if lastTriggeredAt != nil {
		anchor = *lastTriggeredAt
	}
	next := r.Next(anchor)
	return !next.After(now)
}
