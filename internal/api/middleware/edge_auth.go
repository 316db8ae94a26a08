package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pm/patient-system/internal/infrastructure/authclient"
	"github.com/pm/patient-system/internal/pkg/metrics"
)

const defaultVerifyTimeout = 2 * time.Second

// DefaultAllowList holds the routes that never require a token.
var DefaultAllowList = []string{"/auth/login", "/auth/register"}

// TokenVerifier decides whether an Authorization header may pass the edge.
type TokenVerifier interface {
	Verify(ctx context.Context, authorization string) error
}

type EdgeAuthConfig struct {
	Verifier  TokenVerifier
	Timeout   time.Duration
	AllowList []string
	Logger    zerolog.Logger
}

// EdgeAuth authenticates every request before it is proxied. Allow-listed
// paths pass untouched; everything else needs a bearer token that the
// verifier accepts within Timeout. Any verifier failure is a 401.
func EdgeAuth(cfg EdgeAuthConfig) echo.MiddlewareFunc {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultVerifyTimeout
	}
	if cfg.AllowList == nil {
		cfg.AllowList = DefaultAllowList
	}
	allowed := make([]string, 0, len(cfg.AllowList))
	for _, p := range cfg.AllowList {
		allowed = append(allowed, path.Clean(p))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if unsafePath(req.URL) {
				metrics.GatewayAuthDecisionsTotal.WithLabelValues("malformed_path").Inc()
				cfg.Logger.Warn().
					Str("method", req.Method).
					Str("path", req.URL.EscapedPath()).
					Msg("request with dot segments or encoded separators rejected at edge")
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed request path")
			}
			if isAllowListed(allowed, req.URL.EscapedPath()) {
				metrics.GatewayAuthDecisionsTotal.WithLabelValues("allow_listed").Inc()
				return next(c)
			}

			authHeader := req.Header.Get(echo.HeaderAuthorization)
			if !hasBearerToken(authHeader) {
				metrics.GatewayAuthDecisionsTotal.WithLabelValues("missing_credentials").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed bearer token")
			}

			ctx, cancel := context.WithTimeout(req.Context(), cfg.Timeout)
			err := cfg.Verifier.Verify(ctx, authHeader)
			cancel()
			if err != nil {
				decision := "rejected"
				if errors.Is(err, authclient.ErrUnavailable) {
					decision = "verifier_unavailable"
				}
				metrics.GatewayAuthDecisionsTotal.WithLabelValues(decision).Inc()
				cfg.Logger.Warn().Err(err).
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Str("decision", decision).
					Msg("request rejected at edge")
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			metrics.GatewayAuthDecisionsTotal.WithLabelValues("forwarded").Inc()
			return next(c)
		}
	}
}

// isAllowListed matches the escaped path, the one echo routes and the proxy
// rewrites, against each entry exactly or as a parent segment, so /auth/login/
// passes and /auth/login-admin does not.
func isAllowListed(allowed []string, p string) bool {
	for _, a := range allowed {
		if p == a || strings.HasPrefix(p, a+"/") {
			return true
		}
	}
	return false
}

// unsafePath reports paths whose decoded and routed forms can disagree: dot
// segments (plain or percent-encoded) and encoded slashes or backslashes.
func unsafePath(u *url.URL) bool {
	raw := strings.ToLower(u.EscapedPath())
	if strings.Contains(raw, "%2f") || strings.Contains(raw, "%5c") || strings.Contains(u.Path, `\`) {
		return true
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

func hasBearerToken(header string) bool {
	parts := strings.SplitN(header, " ", 2)
	return len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != ""
}
