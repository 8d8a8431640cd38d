package domain

import (
	"errors"
	"testing"
)

func TestParseTemplateTypeFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseTemplateTypeFromString(" approval ")
	if err != nil {
		t.Fatalf("ParseTemplateTypeFromString() unexpected error = %v", err)
	}
	if got != TypeApproval {
		t.Fatalf("ParseTemplateTypeFromString() = %s, want %s", got, TypeApproval)
	}

	_, err = ParseTemplateTypeFromString("broadcast")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseTemplateTypeFromString() error = %v, want ErrValidation", err)
	}
}

func TestParsePriorityFromString(t *testing.T) {
	t.Parallel()

	got, err := ParsePriorityFromString(" urgent ")
	if err != nil {
		t.Fatalf("ParsePriorityFromString() unexpected error = %v", err)
	}
	if got != PriorityUrgent {
		t.Fatalf("ParsePriorityFromString() = %s, want %s", got, PriorityUrgent)
	}

	_, err = ParsePriorityFromString("critical")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParsePriorityFromString() error = %v, want ErrValidation", err)
	}
}

func TestTemplateRender(t *testing.T) {
	t.Parallel()

	template := NotificationTemplate{
		ID:        "deploy-approval",
		Body:      "Release {version} is staged for {service}. Approve the deploy?",
		Variables: []string{"version", "service"},
	}

	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{
			name: "all bindings present",
			vars: map[string]string{"version": "v1.4.2", "service": "billing"},
			want: "Release v1.4.2 is staged for billing. Approve the deploy?",
		},
		{
			name: "missing binding left verbatim",
			vars: map[string]string{"version": "v1.4.2"},
			want: "Release v1.4.2 is staged for {service}. Approve the deploy?",
		},
		{
			name: "nil bindings leave body unchanged",
			vars: nil,
			want: "Release {version} is staged for {service}. Approve the deploy?",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := template.Render(tt.vars); got != tt.want {
				t.Fatalf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTemplateRenderAutoResponse(t *testing.T) {
	t.Parallel()

	withAuto := NotificationTemplate{
		AutoResponse: "No response in time; deploy of {version} is on hold.",
	}
	rendered, ok := withAuto.RenderAutoResponse(map[string]string{"version": "v2.0.0"})
	if !ok {
		t.Fatal("RenderAutoResponse() should report a declared auto-response")
	}
	if rendered != "No response in time; deploy of v2.0.0 is on hold." {
		t.Fatalf("RenderAutoResponse() = %q", rendered)
	}

	withoutAuto := NotificationTemplate{AutoResponse: "   "}
	if _, ok := withoutAuto.RenderAutoResponse(nil); ok {
		t.Fatal("RenderAutoResponse() should report absence for blank auto-response")
	}
}
