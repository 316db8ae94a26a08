// Package authclient calls the auth service's /validate endpoint on behalf of
// the gateway.
package authclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 2 * time.Second

var (
	// ErrRejected means the auth service answered and refused the token.
	ErrRejected = errors.New("token rejected by auth service")
	// ErrUnavailable means no answer was obtained in time.
	ErrUnavailable = errors.New("auth service unavailable")
)

// Verifier asks the auth service whether an Authorization header is valid.
type Verifier struct {
	validateURL string
	client      *http.Client
}

// NewVerifier targets baseURL + "/validate". Every call is bounded by timeout.
func NewVerifier(baseURL string, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Verifier{
		validateURL: strings.TrimRight(baseURL, "/") + "/validate",
		client: &http.Client{
			Timeout: timeout,
			// A redirect is an answer, not an approval.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Verify forwards authorization unchanged. Only a 2xx answer returns nil.
func (v *Verifier) Verify(ctx context.Context, authorization string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.validateURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", authorization)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return nil
}
