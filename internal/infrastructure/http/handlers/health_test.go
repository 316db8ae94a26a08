package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler("patient").Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness(t *testing.T) {
	ok := CheckFunc{Label: "redis", Fn: func(context.Context) error { return nil }}
	down := CheckFunc{Label: "mongodb", Fn: func(context.Context) error { return errors.New("no reachable servers") }}

	cases := []struct {
		name     string
		checkers []Checker
		want     int
		status   string
	}{
		{name: "no dependencies", want: http.StatusOK, status: "ok"},
		{name: "all healthy", checkers: []Checker{ok}, want: http.StatusOK, status: "ok"},
		{name: "one down", checkers: []Checker{ok, down}, want: http.StatusServiceUnavailable, status: "degraded"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewReadinessHandler(tc.checkers...).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Status != tc.status || len(resp.Dependencies) != len(tc.checkers) {
				t.Fatalf("unexpected payload: %+v", resp)
			}
		})
	}
}
