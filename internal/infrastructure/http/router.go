package http

import (
	"fmt"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/api"
	"github.com/pm/patient-system/internal/api/middleware"
	"github.com/pm/patient-system/internal/infrastructure/authclient"
	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
)

// GatewayConfig wires the edge to its upstreams.
type GatewayConfig struct {
	AuthURL       string
	PatientURL    string
	VerifyTimeout time.Duration
	Logger        zerolog.Logger
	// Verifier overrides the HTTP verifier built from AuthURL.
	Verifier middleware.TokenVerifier
}

// NewGatewayRouter builds the public entry point. Every proxied request passes
// the edge filter first; the operational endpoints are served locally.
func NewGatewayRouter(cfg GatewayConfig) (*echo.Echo, error) {
	authTarget, err := url.Parse(cfg.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("auth service url: %w", err)
	}
	patientTarget, err := url.Parse(cfg.PatientURL)
	if err != nil {
		return nil, fmt.Errorf("patient service url: %w", err)
	}

	verifier := cfg.Verifier
	if verifier == nil {
		verifier = authclient.NewVerifier(cfg.AuthURL, cfg.VerifyTimeout)
	}
	authEdge := middleware.EdgeAuth(middleware.EdgeAuthConfig{
		Verifier: verifier,
		Timeout:  cfg.VerifyTimeout,
		Logger:   cfg.Logger,
	})
	// Nothing under /api/patients is exempt.
	patientEdge := middleware.EdgeAuth(middleware.EdgeAuthConfig{
		Verifier:  verifier,
		Timeout:   cfg.VerifyTimeout,
		AllowList: []string{},
		Logger:    cfg.Logger,
	})

	e := api.NewBaseRouter(api.RouterOptions{
		Service: "gateway",
		Logger:  cfg.Logger,
		Checkers: []handlers.Checker{
			upstreamChecker("auth", cfg.AuthURL),
			upstreamChecker("patient", cfg.PatientURL),
		},
	})

	// --- Proxied routes ---
	e.Group("/auth", authEdge, proxyTo(authTarget, map[string]string{"^/auth/*": "/$1"}))
	e.Group("/api/patients", patientEdge, proxyTo(patientTarget, map[string]string{"^/api/patients*": "/patients$1"}))

	return e, nil
}

func proxyTo(target *url.URL, rewrite map[string]string) echo.MiddlewareFunc {
	return echomiddleware.ProxyWithConfig(echomiddleware.ProxyConfig{
		Balancer: echomiddleware.NewRoundRobinBalancer([]*echomiddleware.ProxyTarget{{URL: target}}),
		Rewrite:  rewrite,
	})
}
