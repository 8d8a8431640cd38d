package repository

import (
	"errors"
	"testing"

	"urgency-engine/internal/domain"
)

func TestTemplateRegistryGetByID(t *testing.T) {
	t.Parallel()

	registry := NewMemoryTemplateRegistry(BuiltinTemplates())

	template, err := registry.GetByID(" standup-check ")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if template.Type != domain.TypeQuestion {
		t.Fatalf("template type = %s, want QUESTION", template.Type)
	}

	if _, err := registry.GetByID("unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestTemplateRegistryListKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	registry := NewMemoryTemplateRegistry([]domain.NotificationTemplate{
		{ID: "b", Type: domain.TypeUpdate, Priority: domain.PriorityLow},
		{ID: "a", Type: domain.TypeUpdate, Priority: domain.PriorityLow},
		{ID: "  ", Type: domain.TypeUpdate},
	})

	list := registry.List()
	if len(list) != 2 {
		t.Fatalf("List() length = %d, want 2 (blank ids skipped)", len(list))
	}
	if list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("List() order = %s, %s, want insertion order", list[0].ID, list[1].ID)
	}
}

func TestBuiltinTemplatesAreWellFormed(t *testing.T) {
	t.Parallel()

	templates := BuiltinTemplates()
	if len(templates) == 0 {
		t.Fatal("builtin catalog should not be empty")
	}

	autoResponders := 0
	for _, template := range templates {
		if template.ID == "" || template.Body == "" {
			t.Fatalf("builtin template %+v missing id or body", template)
		}
		if !template.Type.IsValid() || !template.Priority.IsValid() {
			t.Fatalf("builtin template %s has invalid type or priority", template.ID)
		}
		if template.AutoResponse != "" {
			autoResponders++
		}
	}
	if autoResponders == 0 {
		t.Fatal("catalog should include at least one auto-responding template")
	}
}
