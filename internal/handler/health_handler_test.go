package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestLivezHandler(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/livez", LivezHandler())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/livez", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all checks healthy", func(t *testing.T) {
		t.Parallel()

		app := fiber.New()
		app.Get("/readyz", ReadyzHandler(map[string]ReadinessCheck{
			"postgres": ok,
			"redis":    ok,
		}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("one check down", func(t *testing.T) {
		t.Parallel()

		app := fiber.New()
		app.Get("/readyz", ReadyzHandler(map[string]ReadinessCheck{
			"postgres": ok,
			"redis":    down,
		}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		if resp.StatusCode != fiber.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", resp.StatusCode)
		}

		var payload struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if payload.Status != "not_ready" {
			t.Fatalf("status field = %s, want not_ready", payload.Status)
		}
		if payload.Checks["redis"] != "down" || payload.Checks["postgres"] != "ok" {
			t.Fatalf("checks = %+v", payload.Checks)
		}
	})
}
