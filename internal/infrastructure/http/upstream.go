package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pm/patient-system/internal/infrastructure/http/handlers"
)

// upstreamChecker reports an upstream ready when its own liveness probe answers 200.
func upstreamChecker(name, baseURL string) handlers.Checker {
	target := strings.TrimRight(baseURL, "/") + "/health"
	return handlers.CheckFunc{
		Label: name,
		Fn: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("%s health returned %d", name, resp.StatusCode)
			}
			return nil
		},
	}
}
