package ports

import (
	"context"

	"github.com/pm/patient-system/internal/core/domain"
)

// AuthService is the token authority.
type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.User, error)
	// Authenticate returns ok=false, with no error, for an unknown email or a
	// wrong password. err is reserved for infrastructure failures.
	Authenticate(ctx context.Context, email, password string) (token string, ok bool, err error)
	VerifyToken(token string) bool
}
