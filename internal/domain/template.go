package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// TemplateType categorizes what kind of reaction a notification asks for.
type TemplateType string

const (
	TypeQuestion  TemplateType = "QUESTION"
	TypeApproval  TemplateType = "APPROVAL"
	TypeUpdate    TemplateType = "UPDATE"
	TypeReminder  TemplateType = "REMINDER"
	TypeEmergency TemplateType = "EMERGENCY"
)

func (t TemplateType) String() string { return string(t) }

func (t TemplateType) IsValid() bool {
	switch t {
	case TypeQuestion, TypeApproval, TypeUpdate, TypeReminder, TypeEmergency:
		return true
	}
	return false
}

func ParseTemplateTypeFromString(s string) (TemplateType, error) {
	t := TemplateType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: invalid template type %q", ErrValidation, s)
	}
	return t, nil
}

// Priority represents how loudly a notification demands attention.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// NotificationTemplate is an immutable catalog entry describing one kind of
// notification. Body and AutoResponse may contain {placeholder} tokens that
// are substituted from a schedule's variable bindings at dispatch time.
type NotificationTemplate struct {
	ID           string
	Name         string
	Description  string
	Body         string
	Type         TemplateType
	Priority     Priority
	Variables    []string
	AutoResponse string
}

// Render substitutes {token} placeholders in the template body. Tokens with
// no binding are left verbatim; missing bindings degrade the message, they
// do not fail the dispatch.
func (t *NotificationTemplate) Render(vars map[string]string) string {
	return renderPlaceholders(t.Body, vars)
}

// RenderAutoResponse renders the optional auto-response text. The second
// return value reports whether the template declares one at all.
func (t *NotificationTemplate) RenderAutoResponse(vars map[string]string) (string, bool) {
	if strings.TrimSpace(t.AutoResponse) == "" {
		return "", false
	}
	return renderPlaceholders(t.AutoResponse, vars), true
}

func renderPlaceholders(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[1 : len(token)-1]
		if value, ok := vars[name]; ok {
			return value
		}
		return token
	})
}
