package repository

import (
	"strings"

	"urgency-engine/internal/domain"
)

// TemplateRegistry is the read-only template catalog.
type TemplateRegistry interface {
	GetByID(id string) (*domain.NotificationTemplate, error)
	List() []domain.NotificationTemplate
}

// MemoryTemplateRegistry holds an immutable template catalog. No locking is
// needed because the catalog never changes after construction.
type MemoryTemplateRegistry struct {
	templates map[string]domain.NotificationTemplate
	order     []string
}

func NewMemoryTemplateRegistry(templates []domain.NotificationTemplate) *MemoryTemplateRegistry {
	registry := &MemoryTemplateRegistry{
		templates: make(map[string]domain.NotificationTemplate, len(templates)),
		order:     make([]string, 0, len(templates)),
	}
	for _, template := range templates {
		id := strings.TrimSpace(template.ID)
		if id == "" {
			continue
		}
		if _, exists := registry.templates[id]; !exists {
			registry.order = append(registry.order, id)
		}
		registry.templates[id] = template
	}
	return registry
}

func (r *MemoryTemplateRegistry) GetByID(id string) (*domain.NotificationTemplate, error) {
	template, ok := r.templates[strings.TrimSpace(id)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &template, nil
}

func (r *MemoryTemplateRegistry) List() []domain.NotificationTemplate {
	list := make([]domain.NotificationTemplate, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.templates[id])
	}
	return list
}

// BuiltinTemplates returns the stock catalog the engine ships with.
func BuiltinTemplates() []domain.NotificationTemplate {
	return []domain.NotificationTemplate{
		{
			ID:          "standup-check",
			Name:        "Standup Check",
			Description: "Asks what a team member is working on right now.",
			Body:        "{name}, what are you working on right now?",
			Type:        domain.TypeQuestion,
			Priority:    domain.PriorityMedium,
			Variables:   []string{"name"},
		},
		{
			ID:           "deploy-approval",
			Name:         "Deploy Approval",
			Description:  "Requests sign-off before a release goes out.",
			Body:         "Release {version} is staged for {service}. Approve the deploy?",
			Type:         domain.TypeApproval,
			Priority:     domain.PriorityHigh,
			Variables:    []string{"version", "service"},
			AutoResponse: "No response in time; deploy of {version} is on hold.",
		},
		{
			ID:          "status-update",
			Name:        "Status Update",
			Description: "Pushes a progress update nobody asked for.",
			Body:        "Heads up: {summary}",
			Type:        domain.TypeUpdate,
			Priority:    domain.PriorityLow,
			Variables:   []string{"summary"},
		},
		{
			ID:          "meeting-reminder",
			Name:        "Meeting Reminder",
			Description: "Reminds a target user a meeting starts soon.",
			Body:        "{meeting} starts in {minutes} minutes.",
			Type:        domain.TypeReminder,
			Priority:    domain.PriorityMedium,
			Variables:   []string{"meeting", "minutes"},
		},
		{
			ID:           "incident-page",
			Name:         "Incident Page",
			Description:  "Pages the on-call for a production incident.",
			Body:         "INCIDENT {severity}: {summary}. Acknowledge immediately.",
			Type:         domain.TypeEmergency,
			Priority:     domain.PriorityUrgent,
			Variables:    []string{"severity", "summary"},
			AutoResponse: "Page not acknowledged; escalating {severity} incident.",
		},
	}
}
