package port

import (
	"context"

	"github.com/ldt1810/shop-backend/internal/core/domain"
)

// IdentityProvider is the external identity collaborator: account lifecycle,
// credential checks and token resolution.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password, role string) error
	ConfirmSignUp(ctx context.Context, email, code string) error
	SignIn(ctx context.Context, email, password string) (*domain.Tokens, error)

	// Authenticate resolves an access token to the caller's claims, failing
	// with domain.ErrInvalidToken for unknown or expired tokens.
	Authenticate(ctx context.Context, accessToken string) (*domain.Claims, error)

	ChangePassword(ctx context.Context, accessToken, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ConfirmForgotPassword(ctx context.Context, email, code, newPassword string) error
}
