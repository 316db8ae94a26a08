package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pm/patient-system/docs"
	"github.com/pm/patient-system/internal/api/handler"
	"github.com/pm/patient-system/internal/api/middleware"
	"github.com/pm/patient-system/internal/core/ports"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
)

// RouterOptions is what every service router shares.
type RouterOptions struct {
	// Service names the process in logs, health output and the HTTP metric subsystem.
	Service  string
	Logger   zerolog.Logger
	Checkers []handlers.Checker
}

// NewBaseRouter returns an Echo instance carrying the operational surface:
// recovery, request ids, access logs, HTTP metrics, /metrics and the health probes.
func NewBaseRouter(opts RouterOptions) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// Each router gets its own registry so several can live in one process.
	reg := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  opts.Service,
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{prometheus.DefaultGatherer, reg},
	}))

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler(opts.Service).Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(opts.Checkers...).Readiness)

	return e
}

// NewAuthRouter serves the token authority.
func NewAuthRouter(auth ports.AuthService, opts RouterOptions) *echo.Echo {
	e := NewBaseRouter(opts)

	h := handler.NewAuthHandler(auth)
	e.POST("/login", h.Login)
	e.POST("/register", h.Register)
	e.GET("/validate", h.Validate)

	return e
}

// NewPatientRouter serves patient CRUD and its API docs.
func NewPatientRouter(patients ports.PatientService, opts RouterOptions) *echo.Echo {
	e := NewBaseRouter(opts)

	h := handler.NewPatientHandler(patients)
	g := e.Group("/patients")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
